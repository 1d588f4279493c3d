// Package layers reorders and removes objects. Slice order is paint order:
// index 0 is the bottom layer.
package layers

import "labelpro/canvas"

// BringForward swaps id with the object above it. The same slice is returned
// when id is unknown or already on top.
func BringForward(list []canvas.Object, id string) []canvas.Object {
	return move(list, id, 1)
}

// SendBackward swaps id with the object below it. The same slice is returned
// when id is unknown or already at the bottom.
func SendBackward(list []canvas.Object, id string) []canvas.Object {
	return move(list, id, -1)
}

// BringToFront moves id to the top.
func BringToFront(list []canvas.Object, id string) []canvas.Object {
	return move(list, id, len(list))
}

// SendToBack moves id to the bottom.
func SendToBack(list []canvas.Object, id string) []canvas.Object {
	return move(list, id, -len(list))
}

// Delete removes id from the list.
func Delete(list []canvas.Object, id string) []canvas.Object {
	return canvas.Remove(list, id)
}

func move(list []canvas.Object, id string, by int) []canvas.Object {
	from := canvas.IndexOf(list, id)
	if from < 0 {
		return list
	}
	to := min(max(from+by, 0), len(list)-1)
	if to == from {
		return list
	}
	out := canvas.Remove(list, id)
	out = append(out[:to], append([]canvas.Object{list[from]}, out[to:]...)...)
	return out
}
