package canvas

import (
	"encoding/json"
	"fmt"

	"labelpro/core"
)

type wireBase struct {
	ID       string   `json:"id"`
	Type     Kind     `json:"type"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation"`
	Opacity  *float64 `json:"opacity,omitempty"`
	DataKey  string   `json:"dataKey,omitempty"`
}

type wireText struct {
	wireBase
	Text       string     `json:"text"`
	FontSize   float64    `json:"fontSize"`
	FontWeight FontWeight `json:"fontWeight"`
	FontFamily string     `json:"fontFamily"`
	Color      string     `json:"color"`
	TextAlign  TextAlign  `json:"textAlign"`
}

type wireImage struct {
	wireBase
	Src string `json:"src"`
}

type wireBarcode struct {
	wireBase
	Value string `json:"value"`
}

type wireSettings struct {
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	BackgroundColor string  `json:"backgroundColor"`
	BackgroundImage string  `json:"backgroundImage,omitempty"`
	OriginalWidth   float64 `json:"originalWidth,omitempty"`
	OriginalHeight  float64 `json:"originalHeight,omitempty"`
}

var (
	baseKeys     = []string{"id", "type", "x", "y", "width", "height", "rotation", "opacity", "dataKey"}
	textKeys     = append(append([]string{}, baseKeys...), "text", "fontSize", "fontWeight", "fontFamily", "color", "textAlign")
	imageKeys    = append(append([]string{}, baseKeys...), "src")
	barcodeKeys  = append(append([]string{}, baseKeys...), "value")
	settingsKeys = []string{"width", "height", "backgroundColor", "backgroundImage", "originalWidth", "originalHeight"}
	templateKeys = []string{"settings", "objects"}
)

// withExtra merges unknown fields back into an encoded JSON object. Known
// fields win over extras with the same name.
func withExtra(encoded []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return encoded, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, known := fields[k]; !known {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// extraFields returns the entries of raw not named in known.
func extraFields(raw map[string]json.RawMessage, known []string) map[string]json.RawMessage {
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func toWireBase(k Kind, b Base) wireBase {
	opacity := b.Opacity
	return wireBase{
		ID: b.ID, Type: k,
		X: b.X, Y: b.Y, Width: b.Width, Height: b.Height,
		Rotation: b.Rotation, Opacity: &opacity, DataKey: b.DataKey,
	}
}

func fromWireBase(w wireBase, extra map[string]json.RawMessage) Base {
	b := Base{
		ID: w.ID, X: w.X, Y: w.Y, Width: w.Width, Height: w.Height,
		Rotation: w.Rotation, Opacity: 1, DataKey: w.DataKey, Extra: extra,
	}
	if w.Opacity != nil {
		b.Opacity = *w.Opacity
	}
	return b
}

// MarshalObject encodes one placed object with its type tag.
func MarshalObject(o Object) ([]byte, error) {
	var (
		encoded []byte
		err     error
	)
	switch v := o.(type) {
	case Text:
		encoded, err = json.Marshal(wireText{
			wireBase: toWireBase(KindText, v.Base),
			Text:     v.Text, FontSize: v.FontSize, FontWeight: v.FontWeight,
			FontFamily: v.FontFamily, Color: v.Color, TextAlign: v.TextAlign,
		})
	case Image:
		encoded, err = json.Marshal(wireImage{wireBase: toWireBase(KindImage, v.Base), Src: v.Src})
	case Barcode:
		encoded, err = json.Marshal(wireBarcode{wireBase: toWireBase(KindBarcode, v.Base), Value: v.Value})
	default:
		return nil, fmt.Errorf("unsupported object type %T", o)
	}
	if err != nil {
		return nil, err
	}
	return withExtra(encoded, o.Attrs().Extra)
}

// UnmarshalObject decodes one placed object, dispatching on its type tag.
func UnmarshalObject(data []byte) (Object, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Type {
	case KindText:
		w := wireText{FontSize: 16, FontWeight: FontWeightNormal, Color: "#000000", TextAlign: AlignLeft}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return Text{
			Base: fromWireBase(w.wireBase, extraFields(raw, textKeys)),
			Text: w.Text, FontSize: w.FontSize, FontWeight: w.FontWeight,
			FontFamily: w.FontFamily, Color: w.Color, TextAlign: w.TextAlign,
		}, nil
	case KindImage:
		var w wireImage
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return Image{Base: fromWireBase(w.wireBase, extraFields(raw, imageKeys)), Src: w.Src}, nil
	case KindBarcode:
		var w wireBarcode
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		return Barcode{Base: fromWireBase(w.wireBase, extraFields(raw, barcodeKeys)), Value: w.Value}, nil
	}
	return nil, core.NewValidationError("type", "unknown object type %q", head.Type)
}

func (s Settings) MarshalJSON() ([]byte, error) {
	encoded, err := json.Marshal(wireSettings{
		Width: s.Width, Height: s.Height,
		BackgroundColor: s.BackgroundColor, BackgroundImage: s.BackgroundImage,
		OriginalWidth: s.OriginalWidth, OriginalHeight: s.OriginalHeight,
	})
	if err != nil {
		return nil, err
	}
	return withExtra(encoded, s.Extra)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var w wireSettings
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Settings{
		Width: w.Width, Height: w.Height,
		BackgroundColor: w.BackgroundColor, BackgroundImage: w.BackgroundImage,
		OriginalWidth: w.OriginalWidth, OriginalHeight: w.OriginalHeight,
		Extra: extraFields(raw, settingsKeys),
	}
	return nil
}

func (t Template) MarshalJSON() ([]byte, error) {
	objects := make([]json.RawMessage, 0, len(t.Objects))
	for _, o := range t.Objects {
		encoded, err := MarshalObject(o)
		if err != nil {
			return nil, err
		}
		objects = append(objects, encoded)
	}
	encoded, err := json.Marshal(struct {
		Settings Settings          `json:"settings"`
		Objects  []json.RawMessage `json:"objects"`
	}{t.Settings, objects})
	if err != nil {
		return nil, err
	}
	return withExtra(encoded, t.Extra)
}

func (t *Template) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var w struct {
		Settings Settings          `json:"settings"`
		Objects  []json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	objects := make([]Object, 0, len(w.Objects))
	for i, encoded := range w.Objects {
		o, err := UnmarshalObject(encoded)
		if err != nil {
			return fmt.Errorf("objects[%d]: %w", i, err)
		}
		objects = append(objects, o)
	}
	*t = Template{Settings: w.Settings, Objects: objects, Extra: extraFields(raw, templateKeys)}
	return nil
}
