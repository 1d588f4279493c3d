package render

import (
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"labelpro/canvas"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type faceKey struct {
	bold bool
	size int // 1/64 px
}

// fontSet caches faces by weight and pixel size. Family names are not
// resolved; every family maps to the bundled Go fonts.
type fontSet struct {
	once    sync.Once
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	cache map[faceKey]font.Face
}

func (fs *fontSet) load() {
	fs.once.Do(func() {
		fs.regular, _ = opentype.Parse(goregular.TTF)
		fs.bold, _ = opentype.Parse(gobold.TTF)
		fs.cache = make(map[faceKey]font.Face)
	})
}

func (fs *fontSet) face(weight canvas.FontWeight, size float64) font.Face {
	fs.load()
	key := faceKey{bold: weight == canvas.FontWeightBold, size: int(math.Round(size * 64))}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if f, ok := fs.cache[key]; ok {
		return f
	}
	base := fs.regular
	if key.bold {
		base = fs.bold
	}
	if base == nil || size <= 0 {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(base, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	fs.cache[key] = face
	return face
}

// drawText lays out t's lines centered vertically in dst and aligned
// horizontally per t.TextAlign. size is the font size in destination pixels.
func (fs *fontSet) drawText(dst *image.RGBA, t canvas.Text, size float64) {
	face := fs.face(t.FontWeight, size)
	metrics := face.Metrics()
	lineH := metrics.Height.Ceil()
	if lineH <= 0 {
		lineH = int(math.Ceil(size))
	}

	lines := strings.Split(t.Text, "\n")
	width := dst.Bounds().Dx()
	top := (dst.Bounds().Dy() - lineH*len(lines)) / 2

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorOr(t.Color, color.NRGBA{A: 255})),
		Face: face,
	}
	for i, line := range lines {
		adv := d.MeasureString(line).Ceil()
		x := 0
		switch t.TextAlign {
		case canvas.AlignCenter:
			x = (width - adv) / 2
		case canvas.AlignRight:
			x = width - adv
		}
		baseline := top + i*lineH + metrics.Ascent.Ceil()
		d.Dot = fixed.P(x, baseline)
		d.DrawString(line)
	}
}
