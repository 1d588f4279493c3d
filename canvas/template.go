package canvas

import (
	"encoding/json"
	"fmt"

	"labelpro/core"
)

// Settings describes the physical canvas a label is authored on.
type Settings struct {
	Width           float64
	Height          float64
	BackgroundColor string
	BackgroundImage string

	// OriginalWidth and OriginalHeight record the authoring resolution when
	// the template is rendered at another physical size. Zero means unset.
	OriginalWidth  float64
	OriginalHeight float64

	Extra map[string]json.RawMessage
}

// DefaultSettings returns a blank 400x200 white canvas.
func DefaultSettings() Settings {
	return Settings{Width: 400, Height: 200, BackgroundColor: "#ffffff"}
}

// AuthoringSize is the size objects were positioned against.
func (s Settings) AuthoringSize() (float64, float64) {
	w, h := s.OriginalWidth, s.OriginalHeight
	if w <= 0 {
		w = s.Width
	}
	if h <= 0 {
		h = s.Height
	}
	return w, h
}

// ContentScale is the uniform factor mapping authored coordinates onto the
// physical canvas.
func (s Settings) ContentScale() float64 {
	w, _ := s.AuthoringSize()
	if w <= 0 {
		return 1
	}
	return s.Width / w
}

// Template is the durable artifact: settings plus objects in z-order.
type Template struct {
	Settings Settings
	Objects  []Object
	Extra    map[string]json.RawMessage
}

// Decode parses and validates a serialized template.
func Decode(data []byte) (Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return Template{}, err
	}
	if err := t.Validate(); err != nil {
		return Template{}, err
	}
	return t, nil
}

// Encode serializes a template.
func Encode(t Template) ([]byte, error) {
	return json.Marshal(t)
}

// Validate checks the invariants a loaded template must hold.
func (t Template) Validate() error {
	if t.Settings.Width <= 0 || t.Settings.Height <= 0 {
		return core.NewValidationError("settings", "width and height must be positive")
	}
	seen := make(map[string]struct{}, len(t.Objects))
	for i, o := range t.Objects {
		b := o.Attrs()
		if b.ID == "" {
			return core.NewValidationError(fmt.Sprintf("objects[%d].id", i), "is required")
		}
		if _, dup := seen[b.ID]; dup {
			return core.NewValidationError(fmt.Sprintf("objects[%d].id", i), "duplicates %q", b.ID)
		}
		seen[b.ID] = struct{}{}
		if b.Width <= 0 || b.Height <= 0 {
			return core.NewValidationError(fmt.Sprintf("objects[%d]", i), "width and height must be positive")
		}
	}
	return nil
}
