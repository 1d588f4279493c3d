package layout

import (
	"math"

	"labelpro/canvas"
	"labelpro/core"

	"github.com/sirupsen/logrus"
)

// fitEpsilon absorbs float error when a row ends exactly on the page edge.
const fitEpsilon = 1e-6

// Config controls how labels are tiled on a page. Gaps and margin are in
// layout pixels.
type Config struct {
	PageSize  PageSize `json:"pageSize"`
	Scale     float64  `json:"scale"`
	RowGap    float64  `json:"rowGap"`
	ColumnGap float64  `json:"columnGap"`
	Margin    float64  `json:"margin"`
}

// DefaultConfig prints labels at full size on portrait A4 with 10px gaps.
func DefaultConfig() Config {
	return Config{
		PageSize:  PageSize{Name: "A4", Orientation: Portrait},
		Scale:     1,
		RowGap:    10,
		ColumnGap: 10,
	}
}

func (c Config) validate() (Config, error) {
	if c.Scale <= 0 {
		return c, core.NewValidationError("scale", "must be greater than 0")
	}
	if c.RowGap < 0 || c.ColumnGap < 0 || c.Margin < 0 {
		return c, core.NewValidationError("gap", "gaps and margin must not be negative")
	}
	page, err := c.PageSize.Resolve()
	if err != nil {
		return c, err
	}
	c.PageSize = page
	return c, nil
}

// Plan is the page-structured output of the layout engine. Coordinates are
// layout pixels relative to the page's top-left corner.
type Plan struct {
	PageSize      PageSize        `json:"pageSize"`
	PageWidth     float64         `json:"pageWidth"`
	PageHeight    float64         `json:"pageHeight"`
	LabelWidth    float64         `json:"labelWidth"`
	LabelHeight   float64         `json:"labelHeight"`
	Columns       int             `json:"columns"`
	RowsPerPage   int             `json:"rowsPerPage"`
	LabelsPerPage int             `json:"labelsPerPage"`
	Settings      canvas.Settings `json:"-"`
	Pages         []Page          `json:"pages"`
}

type Page struct {
	Index  int     `json:"index"`
	Labels []Label `json:"labels"`
}

// Label is one populated copy of the template placed on a page. Scale maps
// authored object coordinates to page pixels.
type Label struct {
	Row     int             `json:"row"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Scale   float64         `json:"scale"`
	Objects []canvas.Object `json:"-"`
}

// LabelCount is the number of labels across all pages.
func (p *Plan) LabelCount() int {
	n := 0
	for _, page := range p.Pages {
		n += len(page.Labels)
	}
	return n
}

// Paginate binds rows to t and tiles the labels row by row across pages. A
// label that does not fit in the space left on a page starts the next page.
func Paginate(t canvas.Template, rows []Row, cfg Config) (*Plan, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if t.Settings.Width <= 0 || t.Settings.Height <= 0 {
		return nil, core.NewValidationError("settings", "width and height must be positive")
	}
	sets, err := Bind(t, rows)
	if err != nil {
		return nil, err
	}

	pageW, pageH := cfg.PageSize.Pixels()
	availW := pageW - 2*cfg.Margin
	availH := pageH - 2*cfg.Margin
	labelW := t.Settings.Width * cfg.Scale
	labelH := t.Settings.Height * cfg.Scale

	columns := max(1, int(math.Floor((availW+cfg.ColumnGap+fitEpsilon)/(labelW+cfg.ColumnGap))))
	rowsPerPage := max(1, int(math.Floor((availH+cfg.RowGap+fitEpsilon)/(labelH+cfg.RowGap))))

	log := logrus.WithFields(logrus.Fields{
		"page_size":    cfg.PageSize.Name,
		"columns":      columns,
		"rows_on_page": rowsPerPage,
		"labels":       len(sets),
	})
	if labelW > availW+fitEpsilon || labelH > availH+fitEpsilon {
		log.Warn("Label is larger than the printable page area and will be clipped")
	}

	plan := &Plan{
		PageSize:      cfg.PageSize,
		PageWidth:     pageW,
		PageHeight:    pageH,
		LabelWidth:    labelW,
		LabelHeight:   labelH,
		Columns:       columns,
		RowsPerPage:   rowsPerPage,
		LabelsPerPage: columns * rowsPerPage,
		Settings:      t.Settings,
	}

	scale := cfg.Scale * t.Settings.ContentScale()
	page := Page{Index: 0}
	col, y := 0, 0.0
	for i, objects := range sets {
		if col == columns {
			col = 0
			y += labelH + cfg.RowGap
		}
		// labels in one row share y, so only a new row can break the page
		if col == 0 && len(page.Labels) > 0 && y+labelH > availH+fitEpsilon {
			plan.Pages = append(plan.Pages, page)
			page = Page{Index: page.Index + 1}
			col, y = 0, 0
		}
		page.Labels = append(page.Labels, Label{
			Row:     i,
			X:       cfg.Margin + float64(col)*(labelW+cfg.ColumnGap),
			Y:       cfg.Margin + y,
			Width:   labelW,
			Height:  labelH,
			Scale:   scale,
			Objects: objects,
		})
		col++
	}
	plan.Pages = append(plan.Pages, page)

	log.WithField("pages", len(plan.Pages)).Debug("Layout planned")
	return plan, nil
}
