// Package export rasterizes frames. It replays the same draw command
// buffer the browser canvas executes, so exported images match the editor.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/engine"
	"github.com/fraction12/wireflow/internal/typography"
)

const (
	DefaultPadding    = 20.0
	DefaultBackground = "#ffffff"
	MaxScale          = 4.0
	// maxPixels bounds the canvas of a single export.
	maxPixels = 8192 * 8192
)

var ErrImageTooLarge = errors.New("export image too large")

type Options struct {
	// Scale multiplies every world coordinate. Zero means 1.
	Scale      float64
	Padding    float64
	Background string
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	return o
}

// Renderer draws frame views with gg. Text is set with the measurer's
// font so line breaks match the editor.
type Renderer struct {
	fonts *typography.Measurer
}

func NewRenderer(fonts *typography.Measurer) *Renderer {
	if fonts == nil {
		fonts = typography.Default()
	}
	return &Renderer{fonts: fonts}
}

// Bounds returns the world-space area covered by the view's elements and
// instances.
func Bounds(v engine.View) (document.Rect, bool) {
	var (
		r  document.Rect
		ok bool
	)
	add := func(el *document.Element) {
		if !el.IsVisible() {
			return
		}
		b := engine.ElementTransform(el).TransformRect(el.Bounds())
		if !ok {
			r, ok = b, true
			return
		}
		r = r.Union(b)
	}
	for i := range v.Frame.Elements {
		add(&v.Frame.Elements[i])
	}
	for _, inst := range v.Instances {
		for i := range inst.Elements {
			add(&inst.Elements[i])
		}
	}
	return r, ok
}

// Render draws v into a new image sized to its content plus padding.
func (r *Renderer) Render(v engine.View, opts Options) (image.Image, error) {
	opts = opts.withDefaults()
	bounds, ok := Bounds(v)
	if !ok {
		bounds = document.Rect{}
	}

	w := int(math.Ceil((bounds.Width + 2*opts.Padding) * opts.Scale))
	h := int(math.Ceil((bounds.Height + 2*opts.Padding) * opts.Scale))
	if w*h > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetHexColor(opts.Background)
	dc.Clear()

	s := opts.Scale
	toPixel := engine.Matrix2D{s, 0, 0, s, (opts.Padding - bounds.X) * s, (opts.Padding - bounds.Y) * s}

	faces := make(map[float64]font.Face)
	for _, cmd := range engine.CompileDrawCommands(v, r.fonts) {
		if cmd.Overlay {
			continue
		}
		switch cmd.Op {
		case "path":
			m := toPixel
			if len(cmd.Transform) == 6 {
				m = toPixel.Multiply(engine.Matrix2D(cmd.Transform))
			}
			drawPath(dc, cmd, m, s)
		case "text":
			size := cmd.FontSize * s
			face, ok := faces[size]
			if !ok {
				face = truetype.NewFace(r.fonts.Font(), &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
				faces[size] = face
			}
			m := toPixel
			if len(cmd.Transform) == 6 {
				m = toPixel.Multiply(engine.Matrix2D(cmd.Transform))
			}
			drawText(dc, cmd, m, face)
		}
	}
	return dc.Image(), nil
}

// PNG renders v and encodes it to w.
func (r *Renderer) PNG(w io.Writer, v engine.View, opts Options) error {
	img, err := r.Render(v, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func drawPath(dc *gg.Context, cmd engine.DrawCommand, m engine.Matrix2D, scale float64) {
	dc.NewSubPath()
	for _, seg := range cmd.Path {
		if len(seg) == 0 {
			continue
		}
		op, _ := seg[0].(string)
		args := floats(seg[1:])
		switch {
		case op == "M" && len(args) == 2:
			dc.MoveTo(m.TransformPoint(args[0], args[1]))
		case op == "L" && len(args) == 2:
			dc.LineTo(m.TransformPoint(args[0], args[1]))
		case op == "C" && len(args) == 6:
			x1, y1 := m.TransformPoint(args[0], args[1])
			x2, y2 := m.TransformPoint(args[2], args[3])
			x, y := m.TransformPoint(args[4], args[5])
			dc.CubicTo(x1, y1, x2, y2, x, y)
		case op == "Z":
			dc.ClosePath()
		}
	}

	if paintable(cmd.Fill) {
		dc.SetHexColor(cmd.Fill)
		dc.FillPreserve()
	}
	if paintable(cmd.Stroke) {
		dc.SetHexColor(cmd.Stroke)
		dc.SetLineWidth(max(cmd.StrokeWidth, 1) * scale)
		if len(cmd.Dash) > 0 {
			dash := make([]float64, len(cmd.Dash))
			for i, d := range cmd.Dash {
				dash[i] = d * scale
			}
			dc.SetDash(dash...)
		} else {
			dc.SetDash()
		}
		dc.StrokePreserve()
	}
	dc.ClearPath()
}

func drawText(dc *gg.Context, cmd engine.DrawCommand, m engine.Matrix2D, face font.Face) {
	dc.SetFontFace(face)
	color := cmd.Fill
	if !paintable(color) {
		color = "#1e1e1e"
	}
	dc.SetHexColor(color)

	x, ax := cmd.X, 0.0
	switch cmd.Align {
	case "center":
		x, ax = cmd.X+cmd.Width/2, 0.5
	case "right":
		x, ax = cmd.X+cmd.Width, 1
	}
	angle := math.Atan2(m[1], m[0])
	for i, line := range cmd.Lines {
		if line == "" {
			continue
		}
		// Lines are vertically centered in their line box.
		px, py := m.TransformPoint(x, cmd.Y+(float64(i)+0.5)*cmd.LineHeight)
		if angle == 0 {
			dc.DrawStringAnchored(line, px, py, ax, 0.35)
			continue
		}
		dc.Push()
		dc.RotateAbout(angle, px, py)
		dc.DrawStringAnchored(line, px, py, ax, 0.35)
		dc.Pop()
	}
}

func floats(vals []interface{}) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case int:
			out = append(out, float64(n))
		}
	}
	return out
}

func paintable(color string) bool {
	c := strings.TrimSpace(strings.ToLower(color))
	return strings.HasPrefix(c, "#") && (len(c) == 4 || len(c) == 7 || len(c) == 9)
}
