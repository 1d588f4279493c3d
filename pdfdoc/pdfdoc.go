// Package pdfdoc assembles captured page bitmaps into a PDF, one full-bleed
// image per page.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"labelpro/export"
	"labelpro/layout"

	"github.com/jung-kurt/gofpdf"
)

var _ export.Assembler = Assembler{}

// Assembler creates PDFs with the plan's physical page size.
type Assembler struct {
	Title  string
	Author string
}

func (a Assembler) NewDocument(plan *layout.Plan) (export.Document, error) {
	if plan == nil {
		return nil, errors.New("nil plan")
	}
	w, h := plan.PageSize.Dimensions()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid page size %vx%v", w, h)
	}
	size := gofpdf.SizeType{Wd: w, Ht: h}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        string(plan.PageSize.Unit),
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("labelpro", true)
	if a.Title != "" {
		pdf.SetTitle(a.Title, true)
	}
	if a.Author != "" {
		pdf.SetAuthor(a.Author, true)
	}
	return &Document{pdf: pdf, size: size}, nil
}

type Document struct {
	pdf  *gofpdf.Fpdf
	size gofpdf.SizeType
}

// AddPage appends img stretched over a new page.
func (d *Document) AddPage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	name := fmt.Sprintf("page-%d", d.pdf.PageCount()+1)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}

	d.pdf.AddPageFormat("P", d.size)
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	d.pdf.ImageOptions(name, 0, 0, d.size.Wd, d.size.Ht, false, opts, 0, "")
	return d.pdf.Error()
}

func (d *Document) PageCount() int {
	return d.pdf.PageCount()
}

// Bytes closes the document and returns its encoding.
func (d *Document) Bytes() ([]byte, error) {
	if d.pdf.PageCount() == 0 {
		return nil, errors.New("document has no pages")
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
