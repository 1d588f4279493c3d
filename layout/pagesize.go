package layout

import (
	"strings"

	"labelpro/core"
)

// PixelsPerInch converts physical page units to layout pixels.
const PixelsPerInch = 96.0

type Unit string

const (
	UnitMillimeter Unit = "mm"
	UnitInch       Unit = "in"
)

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// PageSize is a physical sheet. Width and Height are given in Unit for the
// portrait orientation.
type PageSize struct {
	Name        string      `json:"name"`
	Unit        Unit        `json:"unit,omitempty"`
	Width       float64     `json:"width,omitempty"`
	Height      float64     `json:"height,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
}

var pageSizes = map[string]PageSize{
	"a4":      {Name: "A4", Unit: UnitMillimeter, Width: 210, Height: 297},
	"a5":      {Name: "A5", Unit: UnitMillimeter, Width: 148, Height: 210},
	"letter":  {Name: "Letter", Unit: UnitInch, Width: 8.5, Height: 11},
	"legal":   {Name: "Legal", Unit: UnitInch, Width: 8.5, Height: 14},
	"tabloid": {Name: "Tabloid", Unit: UnitInch, Width: 11, Height: 17},
}

// NamedPageSize looks up a standard sheet by name, case-insensitively.
func NamedPageSize(name string, o Orientation) (PageSize, error) {
	p, ok := pageSizes[strings.ToLower(name)]
	if !ok {
		return PageSize{}, core.NewValidationError("pageSize", "unknown page size %q", name)
	}
	p.Orientation = o
	return p, nil
}

// Resolve fills in the dimensions of a named page and checks custom ones.
func (p PageSize) Resolve() (PageSize, error) {
	if p.Orientation == "" {
		p.Orientation = Portrait
	}
	if p.Orientation != Portrait && p.Orientation != Landscape {
		return PageSize{}, core.NewValidationError("pageSize.orientation", "must be portrait or landscape")
	}
	if p.Width <= 0 || p.Height <= 0 {
		return NamedPageSize(p.Name, p.Orientation)
	}
	if p.Unit != UnitMillimeter && p.Unit != UnitInch {
		return PageSize{}, core.NewValidationError("pageSize.unit", "must be mm or in")
	}
	return p, nil
}

// Dimensions returns the oriented width and height in the page unit.
func (p PageSize) Dimensions() (float64, float64) {
	w, h := p.Width, p.Height
	if p.Orientation == Landscape {
		w, h = h, w
	}
	return w, h
}

// Pixels returns the oriented width and height in layout pixels.
func (p PageSize) Pixels() (float64, float64) {
	w, h := p.Dimensions()
	perUnit := PixelsPerInch
	if p.Unit == UnitMillimeter {
		perUnit = PixelsPerInch / 25.4
	}
	return w * perUnit, h * perUnit
}
