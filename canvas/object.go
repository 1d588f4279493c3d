// Package canvas holds the label object model: placed objects, canvas
// settings and the persisted template shape.
//
// Values in this package are treated as immutable. Every update returns a new
// object or a new slice; callers never write into a slice they did not build.
package canvas

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"
)

// MinSize is the smallest width or height an object may be resized to.
const MinSize = 20.0

type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindBarcode Kind = "barcode"
)

type FontWeight string

const (
	FontWeightNormal FontWeight = "normal"
	FontWeightBold   FontWeight = "bold"
)

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// Base is the geometry and binding shared by every placed object.
type Base struct {
	ID       string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64 // degrees
	Opacity  float64 // 0..1
	DataKey  string  // empty when the object is not bound

	// Extra keeps wire fields this version does not know about.
	Extra map[string]json.RawMessage
}

// Object is a placed element. It is implemented only by Text, Image and
// Barcode; consumers switch over those three types.
type Object interface {
	Kind() Kind
	Attrs() Base
	WithAttrs(Base) Object
	sealed()
}

type Text struct {
	Base
	Text       string
	FontSize   float64
	FontWeight FontWeight
	FontFamily string
	Color      string
	TextAlign  TextAlign
}

type Image struct {
	Base
	Src string // URL or data URL
}

type Barcode struct {
	Base
	Value string
}

func (Text) Kind() Kind    { return KindText }
func (Image) Kind() Kind   { return KindImage }
func (Barcode) Kind() Kind { return KindBarcode }

func (t Text) Attrs() Base    { return t.Base }
func (i Image) Attrs() Base   { return i.Base }
func (b Barcode) Attrs() Base { return b.Base }

func (t Text) WithAttrs(b Base) Object    { t.Base = b; return t }
func (i Image) WithAttrs(b Base) Object   { i.Base = b; return i }
func (c Barcode) WithAttrs(b Base) Object { c.Base = b; return c }

func (Text) sealed()    {}
func (Image) sealed()   {}
func (Barcode) sealed() {}

// NewID returns a fresh object identifier.
func NewID() string {
	return ulid.Make().String()
}

func newBase(w, h float64) Base {
	return Base{ID: NewID(), X: 50, Y: 50, Width: w, Height: h, Opacity: 1}
}

// NewText returns a text object with editor defaults.
func NewText() Text {
	return Text{
		Base:       newBase(150, 40),
		Text:       "New Text",
		FontSize:   16,
		FontWeight: FontWeightNormal,
		FontFamily: "Arial",
		Color:      "#000000",
		TextAlign:  AlignLeft,
	}
}

// NewImage returns an image object showing src.
func NewImage(src string) Image {
	return Image{Base: newBase(100, 100), Src: src}
}

// NewBarcode returns a barcode object encoding value.
func NewBarcode(value string) Barcode {
	if value == "" {
		value = "123456789"
	}
	return Barcode{Base: newBase(200, 80), Value: value}
}

// Center returns the center of the object's unrotated bounding box.
func (b Base) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}
