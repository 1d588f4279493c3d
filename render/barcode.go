package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"golang.org/x/image/draw"
)

// BarcodeMargin is kept clear around a symbol inside its object box, in
// authored units.
const BarcodeMargin = 5.0

// BarcodeEncoder turns a payload into a symbol bitmap of the given size.
type BarcodeEncoder interface {
	Encode(value string, width, height int) (image.Image, error)
}

// SymbolEncoder encodes Code 128 by default and QR for values prefixed "qr:".
type SymbolEncoder struct{}

func (SymbolEncoder) Encode(value string, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("barcode box %dx%d is empty", width, height)
	}
	var (
		symbol barcode.Barcode
		err    error
	)
	if payload, ok := strings.CutPrefix(value, "qr:"); ok {
		symbol, err = qr.Encode(payload, qr.M, qr.Auto)
	} else {
		symbol, err = code128.Encode(value)
	}
	if err != nil {
		return nil, fmt.Errorf("encode barcode %q: %w", value, err)
	}

	scaled, err := barcode.Scale(symbol, width, height)
	if err == nil {
		return scaled, nil
	}
	// boombuler refuses to shrink below one pixel per module
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), symbol, symbol.Bounds(), draw.Src, nil)
	return dst, nil
}
