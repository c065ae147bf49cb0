package mesh

import (
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// minSpan keeps the projection finite when all markers share a coordinate.
const minSpan = 0.001 // degrees

// withAlpha converts an opaque color to premultiplied RGBA with the given
// opacity, as the canvas library expects.
func withAlpha(c color.RGBA, opacity float64) color.RGBA {
	a := uint32(math.Round(opacity * 255))
	if a == 0 {
		return color.RGBA{}
	}
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: uint8(a),
	}
}

// VectorRenderer draws a Scene as vector graphics using an equirectangular
// projection fitted to the canvas.
type VectorRenderer struct {
	Scene      *Scene
	Config     MapConfig
	Resolution canvas.Resolution // PNG output only
}

// NewVectorRenderer creates a renderer for scene. Zero fields of cfg take
// their defaults.
func NewVectorRenderer(scene *Scene, cfg MapConfig) *VectorRenderer {
	full := Config{Map: cfg}
	full.ApplyDefaults()
	return &VectorRenderer{
		Scene:      scene,
		Config:     full.Map,
		Resolution: canvas.DPI(full.Map.Resolution),
	}
}

// canvasRenderer is implemented by both the svg and rasterizer renderers.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the scene as an SVG document.
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	svgRenderer := svg.New(w, r.Config.Width, r.Config.Height, nil)
	r.renderToCanvas(svgRenderer)
	return svgRenderer.Close()
}

// RenderToPNG writes the scene as a PNG image.
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	rast := rasterizer.New(r.Config.Width, r.Config.Height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast)
	return png.Encode(w, rast)
}

// projection maps lng/lat to canvas millimeters.
type projection struct {
	bound orb.Bound
	scale float64
	offX  float64
	offY  float64
}

func (p projection) apply(pt orb.Point) (float64, float64) {
	x := (pt.Lon()-p.bound.Min.Lon())*p.scale + p.offX
	y := (pt.Lat()-p.bound.Min.Lat())*p.scale + p.offY
	return x, y
}

func (r *VectorRenderer) projection() projection {
	bound, ok := r.Scene.Bound()
	if !ok {
		c := orb.Point{r.Config.Center.Lng, r.Config.Center.Lat}
		bound = orb.Bound{Min: c, Max: c}
	}
	if bound.Right()-bound.Left() < minSpan {
		bound.Min[0] -= minSpan / 2
		bound.Max[0] += minSpan / 2
	}
	if bound.Top()-bound.Bottom() < minSpan {
		bound.Min[1] -= minSpan / 2
		bound.Max[1] += minSpan / 2
	}

	innerW := r.Config.Width - 2*r.Config.Padding
	innerH := r.Config.Height - 2*r.Config.Padding
	dx := bound.Right() - bound.Left()
	dy := bound.Top() - bound.Bottom()
	scale := math.Min(innerW/dx, innerH/dy)

	return projection{
		bound: bound,
		scale: scale,
		offX:  r.Config.Padding + (innerW-dx*scale)/2,
		offY:  r.Config.Padding + (innerH-dy*scale)/2,
	}
}

func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(r.Config.Width, r.Config.Height), bgStyle, canvas.Identity)

	proj := r.projection()

	// Polygons first so markers stay on top.
	for _, poly := range r.Scene.Polygons() {
		if len(poly.Vertices) == 0 {
			continue
		}
		c, err := ParseColor(poly.Color)
		if err != nil {
			log.WithError(err).Warnf("polygon %s: skipping invalid color", poly.GroupID)
			continue
		}
		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: withAlpha(c, *r.Config.FillOpacity)}
		style.Stroke = canvas.Paint{Color: withAlpha(c, *r.Config.StrokeOpacity)}
		style.StrokeWidth = 0.3

		cp := &canvas.Path{}
		for i, v := range poly.Vertices {
			x, y := proj.apply(v)
			if i == 0 {
				cp.MoveTo(x, y)
			} else {
				cp.LineTo(x, y)
			}
		}
		cp.Close()
		renderer.RenderPath(cp, style, canvas.Identity)
	}

	for _, m := range r.Scene.Markers() {
		c, err := ParseColor(m.Icon.Color)
		if err != nil {
			c, _ = ParseColor(DefaultUngroupedColor)
		}
		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: canvas.White}
		style.Stroke = canvas.Paint{Color: c}
		style.StrokeWidth = 1.2

		x, y := proj.apply(m.Point.Location())
		marker := canvas.Circle(1.5).Translate(x, y)
		renderer.RenderPath(marker, style, canvas.Identity)
	}
}
