package canvas

import "math"

// Patch is a partial property edit. Nil fields are left untouched and
// variant fields only apply to the variant that owns them.
type Patch struct {
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Rotation *float64
	Opacity  *float64
	DataKey  *string

	Text       *string
	FontSize   *float64
	FontWeight *FontWeight
	FontFamily *string
	Color      *string
	TextAlign  *TextAlign

	Src   *string
	Value *string
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// Apply returns a copy of o with the patch applied. Sizes are floored at
// MinSize and opacity is clamped to [0, 1].
func (p Patch) Apply(o Object) Object {
	b := o.Attrs()
	if p.X != nil {
		b.X = *p.X
	}
	if p.Y != nil {
		b.Y = *p.Y
	}
	if p.Width != nil {
		b.Width = math.Max(*p.Width, MinSize)
	}
	if p.Height != nil {
		b.Height = math.Max(*p.Height, MinSize)
	}
	if p.Rotation != nil {
		b.Rotation = *p.Rotation
	}
	if p.Opacity != nil {
		b.Opacity = math.Min(math.Max(*p.Opacity, 0), 1)
	}
	if p.DataKey != nil {
		b.DataKey = *p.DataKey
	}
	o = o.WithAttrs(b)

	switch v := o.(type) {
	case Text:
		if p.Text != nil {
			v.Text = *p.Text
		}
		if p.FontSize != nil && *p.FontSize > 0 {
			v.FontSize = *p.FontSize
		}
		if p.FontWeight != nil {
			v.FontWeight = *p.FontWeight
		}
		if p.FontFamily != nil {
			v.FontFamily = *p.FontFamily
		}
		if p.Color != nil {
			v.Color = *p.Color
		}
		if p.TextAlign != nil {
			v.TextAlign = *p.TextAlign
		}
		return v
	case Image:
		if p.Src != nil {
			v.Src = *p.Src
		}
		return v
	case Barcode:
		if p.Value != nil {
			v.Value = *p.Value
		}
		return v
	}
	return o
}

// IndexOf returns the position of id in list, or -1.
func IndexOf(list []Object, id string) int {
	for i, o := range list {
		if o.Attrs().ID == id {
			return i
		}
	}
	return -1
}

// Find returns the object with the given id.
func Find(list []Object, id string) (Object, bool) {
	i := IndexOf(list, id)
	if i < 0 {
		return nil, false
	}
	return list[i], true
}

// Add returns a new list with o on top.
func Add(list []Object, o Object) []Object {
	out := make([]Object, len(list), len(list)+1)
	copy(out, list)
	return append(out, o)
}

// Replace returns a new list where the entry sharing o's id is swapped for o.
// An unknown id returns list unchanged.
func Replace(list []Object, o Object) []Object {
	i := IndexOf(list, o.Attrs().ID)
	if i < 0 {
		return list
	}
	out := Clone(list)
	out[i] = o
	return out
}

// PatchByID applies p to the object with the given id. An unknown id returns
// list unchanged.
func PatchByID(list []Object, id string, p Patch) []Object {
	o, ok := Find(list, id)
	if !ok {
		return list
	}
	return Replace(list, p.Apply(o))
}

// Remove returns a new list without id. An unknown id returns list unchanged.
func Remove(list []Object, id string) []Object {
	i := IndexOf(list, id)
	if i < 0 {
		return list
	}
	out := make([]Object, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

// Clone returns a shallow copy of list.
func Clone(list []Object) []Object {
	out := make([]Object, len(list))
	copy(out, list)
	return out
}
