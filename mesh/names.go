package mesh

import (
	"math/rand/v2"
	"sync"
)

// NameGenerator produces human-readable point labels.
type NameGenerator interface {
	NextName() string
}

var adjectives = []string{
	"able", "amber", "ancient", "angry", "brave", "bright", "brisk", "calm",
	"clever", "cold", "cosmic", "curious", "daring", "dizzy", "eager", "early",
	"electric", "fancy", "fierce", "fluffy", "gentle", "giant", "glad", "golden",
	"grumpy", "happy", "hidden", "humble", "icy", "jolly", "keen", "kind",
	"lazy", "little", "lively", "loud", "lucky", "mellow", "mighty", "misty",
	"noble", "odd", "patient", "polite", "proud", "quick", "quiet", "rapid",
	"rare", "rusty", "shy", "silent", "silly", "sleepy", "smooth", "sour",
	"spicy", "steady", "sunny", "swift", "tame", "tiny", "vast", "wild",
	"wise", "witty", "young", "zany",
}

var animals = []string{
	"albatross", "alpaca", "antelope", "badger", "bat", "bear", "beaver",
	"bison", "boar", "buffalo", "camel", "cat", "cheetah", "chipmunk", "cobra",
	"cougar", "coyote", "crane", "crow", "deer", "dingo", "dolphin", "donkey",
	"eagle", "eel", "elephant", "falcon", "ferret", "finch", "fox", "frog",
	"gazelle", "gecko", "gibbon", "goat", "gorilla", "hamster", "hare", "hawk",
	"hedgehog", "heron", "hippo", "horse", "hyena", "ibis", "iguana", "jackal",
	"jaguar", "kangaroo", "koala", "lemur", "leopard", "lion", "llama",
	"lobster", "lynx", "macaw", "magpie", "marmot", "meerkat", "mole", "moose",
	"newt", "ocelot", "octopus", "otter", "owl", "panda", "panther", "parrot",
	"pelican", "penguin", "puffin", "quail", "rabbit", "raccoon", "raven",
	"salmon", "seal", "shark", "skunk", "sloth", "snail", "sparrow", "squid",
	"stork", "swan", "tapir", "tiger", "toad", "turtle", "walrus", "weasel",
	"whale", "wolf", "wombat", "yak", "zebra",
}

// RandomNames builds "adjective-animal" labels.
type RandomNames struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomNames returns a name generator seeded from the runtime's entropy.
func NewRandomNames() *RandomNames {
	return &RandomNames{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededNames returns a deterministic name generator.
func NewSeededNames(seed uint64) *RandomNames {
	return &RandomNames{rng: rand.New(rand.NewPCG(seed, ^seed))}
}

// NextName returns a two-word hyphenated label such as "sleepy-otter".
func (g *RandomNames) NextName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return adjectives[g.rng.IntN(len(adjectives))] + "-" + animals[g.rng.IntN(len(animals))]
}
