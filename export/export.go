// Package export drives a layout plan through page capture and document
// assembly.
package export

import (
	"context"
	"fmt"
	"image"
	"time"

	"labelpro/core"
	"labelpro/layout"

	"github.com/sirupsen/logrus"
)

// DefaultQuality is the raster resolution multiplier used when none is set.
const DefaultQuality = 2.0

// Chrome is the on-screen decoration that must not appear in exported pages.
// Restore follows every Hide call, including one that failed.
type Chrome interface {
	Hide(ctx context.Context) error
	Restore()
}

// Snapshotter rasterizes one page of a plan at quality times layout pixels.
type Snapshotter interface {
	Snapshot(ctx context.Context, plan *layout.Plan, page layout.Page, quality float64) (image.Image, error)
}

// Document receives page images in order.
type Document interface {
	AddPage(img image.Image) error
	Bytes() ([]byte, error)
}

// Assembler opens a document sized for the plan's pages.
type Assembler interface {
	NewDocument(plan *layout.Plan) (Document, error)
}

// NoChrome is used when nothing needs hiding.
type NoChrome struct{}

func (NoChrome) Hide(context.Context) error { return nil }
func (NoChrome) Restore()                   {}

type Pipeline struct {
	Chrome      Chrome
	Snapshotter Snapshotter
	Assembler   Assembler
	Quality     float64
}

// Export captures every page of plan in order and returns the assembled
// document. Chrome is hidden for the duration and restored on every path.
// Any failure yields a *core.CaptureError and no bytes.
func (p Pipeline) Export(ctx context.Context, plan *layout.Plan) (out []byte, err error) {
	if plan == nil || len(plan.Pages) == 0 {
		return nil, &core.CaptureError{Stage: "plan", Page: -1, Err: fmt.Errorf("plan has no pages")}
	}
	quality := p.Quality
	if quality <= 0 {
		quality = DefaultQuality
	}
	chrome := p.Chrome
	if chrome == nil {
		chrome = NoChrome{}
	}

	log := logrus.WithFields(logrus.Fields{
		"pages":   len(plan.Pages),
		"quality": quality,
	})
	start := time.Now()

	// a partial hide still has to be undone
	defer chrome.Restore()
	if err := chrome.Hide(ctx); err != nil {
		return nil, &core.CaptureError{Stage: "chrome", Page: -1, Err: err}
	}

	page := -1
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &core.CaptureError{Stage: "capture", Page: page, Err: fmt.Errorf("panic: %v", r)}
			log.WithError(err).Error("Export aborted")
		}
	}()

	doc, err := p.Assembler.NewDocument(plan)
	if err != nil {
		return nil, &core.CaptureError{Stage: "assemble", Page: -1, Err: err}
	}

	for i, pg := range plan.Pages {
		page = i
		if err := ctx.Err(); err != nil {
			return nil, &core.CaptureError{Stage: "capture", Page: i, Err: err}
		}
		img, err := p.Snapshotter.Snapshot(ctx, plan, pg, quality)
		if err != nil {
			log.WithError(err).WithField("page", i).Error("Failed to capture page")
			return nil, &core.CaptureError{Stage: "capture", Page: i, Err: err}
		}
		if err := doc.AddPage(img); err != nil {
			return nil, &core.CaptureError{Stage: "assemble", Page: i, Err: err}
		}
	}
	page = -1

	out, err = doc.Bytes()
	if err != nil {
		return nil, &core.CaptureError{Stage: "assemble", Page: -1, Err: err}
	}
	log.WithFields(logrus.Fields{
		"bytes":    len(out),
		"duration": time.Since(start).String(),
	}).Info("Export complete")
	return out, nil
}
