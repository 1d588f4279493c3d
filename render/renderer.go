// Package render rasterizes layout pages into bitmaps for export.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"labelpro/canvas"
	"labelpro/export"
	"labelpro/layout"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var (
	guideColor = color.NRGBA{R: 204, G: 204, B: 204, A: 255}
	white      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer draws pages of a plan. Label guides are drawn unless hidden; it
// doubles as the export chrome so guides never reach exported documents.
type Renderer struct {
	Barcodes BarcodeEncoder
	Images   ImageLoader

	fonts  fontSet
	hidden bool
}

var (
	_ export.Snapshotter = (*Renderer)(nil)
	_ export.Chrome      = (*Renderer)(nil)
)

func NewRenderer() *Renderer {
	return &Renderer{Barcodes: SymbolEncoder{}, Images: SourceLoader{}}
}

func (r *Renderer) Hide(context.Context) error {
	r.hidden = true
	return nil
}

func (r *Renderer) Restore() {
	r.hidden = false
}

// GuidesVisible reports whether label outlines are currently drawn.
func (r *Renderer) GuidesVisible() bool {
	return !r.hidden
}

// Snapshot renders one page on a white background at quality pixels per
// layout pixel.
func (r *Renderer) Snapshot(ctx context.Context, plan *layout.Plan, page layout.Page, quality float64) (image.Image, error) {
	if quality <= 0 {
		return nil, fmt.Errorf("quality must be positive, got %v", quality)
	}
	w := int(math.Ceil(plan.PageWidth * quality))
	h := int(math.Ceil(plan.PageHeight * quality))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)

	for _, label := range page.Labels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tile, err := r.Label(ctx, plan.Settings, label, quality)
		if err != nil {
			return nil, fmt.Errorf("label for row %d: %w", label.Row, err)
		}
		at := image.Pt(int(math.Round(label.X*quality)), int(math.Round(label.Y*quality)))
		draw.Draw(dst, tile.Bounds().Add(at), tile, image.Point{}, draw.Over)
		if !r.hidden {
			outline(dst, tile.Bounds().Add(at), guideColor)
		}
	}
	return dst, nil
}

// Label renders one label tile: background, then objects in stacking order.
func (r *Renderer) Label(ctx context.Context, settings canvas.Settings, label layout.Label, quality float64) (*image.RGBA, error) {
	w := max(1, int(math.Round(label.Width*quality)))
	h := max(1, int(math.Round(label.Height*quality)))
	tile := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(tile, tile.Bounds(), image.NewUniform(colorOr(settings.BackgroundColor, white)), image.Point{}, draw.Src)

	if settings.BackgroundImage != "" {
		if bg, err := r.Images.Load(ctx, settings.BackgroundImage); err != nil {
			logrus.WithError(err).Warn("Skipping label background image")
		} else {
			draw.CatmullRom.Scale(tile, tile.Bounds(), bg, bg.Bounds(), draw.Over, nil)
		}
	}

	scale := label.Scale * quality
	for _, obj := range label.Objects {
		src, err := r.object(ctx, obj, scale)
		if err != nil {
			return nil, err
		}
		if src == nil {
			continue
		}
		composite(tile, src, obj.Attrs(), scale)
	}
	return tile, nil
}

// object renders obj unrotated at its own size. A nil image means there is
// nothing to draw.
func (r *Renderer) object(ctx context.Context, obj canvas.Object, scale float64) (image.Image, error) {
	b := obj.Attrs()
	w := int(math.Round(b.Width * scale))
	h := int(math.Round(b.Height * scale))
	if w <= 0 || h <= 0 {
		return nil, nil
	}

	switch o := obj.(type) {
	case canvas.Text:
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		r.fonts.drawText(dst, o, o.FontSize*scale)
		return dst, nil

	case canvas.Image:
		if o.Src == "" {
			return nil, nil
		}
		img, err := r.Images.Load(ctx, o.Src)
		if err != nil {
			logrus.WithError(err).WithField("object_id", o.ID).Warn("Skipping image that failed to load")
			return nil, nil
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		return dst, nil

	case canvas.Barcode:
		margin := int(math.Round(BarcodeMargin * scale))
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)
		inner := image.Rect(margin, margin, w-margin, h-margin)
		if inner.Empty() {
			return dst, nil
		}
		symbol, err := r.Barcodes.Encode(o.Value, inner.Dx(), inner.Dy())
		if err != nil {
			return nil, fmt.Errorf("barcode %s: %w", o.ID, err)
		}
		draw.Draw(dst, inner, symbol, symbol.Bounds().Min, draw.Over)
		return dst, nil
	}
	return nil, fmt.Errorf("unknown object type %T", obj)
}

// composite draws src onto dst at b's scaled position, rotated about its
// center and faded by its opacity.
func composite(dst *image.RGBA, src image.Image, b canvas.Base, scale float64) {
	ow, oh := float64(src.Bounds().Dx()), float64(src.Bounds().Dy())
	cx := b.X*scale + ow/2
	cy := b.Y*scale + oh/2
	rad := b.Rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)

	m := f64.Aff3{
		cos, -sin, cx - cos*ow/2 + sin*oh/2,
		sin, cos, cy - sin*ow/2 - cos*oh/2,
	}
	var opts *draw.Options
	if b.Opacity < 1 {
		alpha := uint8(math.Round(math.Max(b.Opacity, 0) * 255))
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: alpha})}
	}
	draw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Over, opts)
}

func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}
