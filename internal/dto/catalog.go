package dto

// CatalogSlot is a bookable weekly interval for a course. BackingSlots maps each
// instructor to the availability slot id that covers the interval.
type CatalogSlot struct {
	DayOfWeek    int               `json:"dayOfWeek"`
	StartTime    string            `json:"startTime"`
	EndTime      string            `json:"endTime"`
	BackingSlots map[string]string `json:"backingSlots"`
}

// SlotID returns the backing slot of the given instructor.
func (s CatalogSlot) SlotID(instructorID string) string {
	return s.BackingSlots[instructorID]
}

// Matches reports whether the selection names this interval.
func (s CatalogSlot) Matches(sel SlotSelection) bool {
	if sel.DayOfWeek == nil || *sel.DayOfWeek != s.DayOfWeek {
		return false
	}
	return sel.StartTime == s.StartTime && sel.EndTime == s.EndTime
}
