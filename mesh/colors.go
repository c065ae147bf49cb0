package mesh

import (
	"fmt"
	"image/color"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
)

// ColorSource hands out random group colors as "#rrggbb" strings.
type ColorSource interface {
	NextColor() string
}

// RandomColors draws colors from a math/rand/v2 generator.
type RandomColors struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomColors returns a color source seeded from the runtime's entropy.
func NewRandomColors() *RandomColors {
	return &RandomColors{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededColors returns a deterministic color source.
func NewSeededColors(seed uint64) *RandomColors {
	return &RandomColors{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NextColor returns the six leading hex digits of a random 32-bit value.
func (c *RandomColors) NextColor() string {
	c.mu.Lock()
	f := c.rng.Float64()
	c.mu.Unlock()
	v := uint32(0xffffffff - f*0xffffffff)
	return fmt.Sprintf("#%06x", v>>8)
}

// ParseColor accepts "#rgb", "#rrggbb" or an SVG 1.1 color name
// ("dimgray", "tomato") and returns an opaque RGBA color.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}
	if !strings.HasPrefix(s, "#") {
		c, ok := colornames.Map[strings.ToLower(s)]
		if !ok {
			return color.RGBA{}, fmt.Errorf("unknown color name %q", s)
		}
		return c, nil
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// HexColor formats an RGBA color as "#rrggbb", dropping alpha.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
