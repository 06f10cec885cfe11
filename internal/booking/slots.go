package booking

// SlotLength is the fixed duration of every bookable interval.
const SlotLength ClockMinute = 30

// Slot is a half-open [Start, End) interval within a provider's day.
type Slot struct {
	Start ClockMinute
	End   ClockMinute
}

// SlotGrid derives the ordered set of bookable intervals between a
// provider's opening and closing times. A trailing interval that would
// run past close is dropped rather than shortened; open >= close
// yields no slots.
func SlotGrid(open, close ClockMinute) []Slot {
	var slots []Slot
	for cur := open; cur+SlotLength <= close; cur += SlotLength {
		slots = append(slots, Slot{Start: cur, End: cur + SlotLength})
	}
	return slots
}

// SlotOffered reports whether start is one of the grid's start times.
func SlotOffered(open, close, start ClockMinute) bool {
	if start < open || start+SlotLength > close {
		return false
	}
	return (start-open)%SlotLength == 0
}
