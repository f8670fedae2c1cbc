package models

import (
	"sort"
	"time"
)

// DaysPerWeek is the number of availability buckets; index 0 is Sunday.
const DaysPerWeek = 7

// AvailabilitySlot is one recurring weekly interval published by a teacher or staff user.
type AvailabilitySlot struct {
	ID          string    `db:"id" json:"id"`
	OwnerUserID string    `db:"owner_user_id" json:"owner_user_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	Category    string    `db:"category" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Spans reports whether the slot is exactly the given weekly interval.
func (s AvailabilitySlot) Spans(day int, start, end string) bool {
	return s.DayOfWeek == day && s.StartTime == start && s.EndTime == end
}

// Overlaps reports whether both slots share a day and their [start,end) intervals intersect.
func (s AvailabilitySlot) Overlaps(other AvailabilitySlot) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return false
	}
	return s.StartTime < other.EndTime && other.StartTime < s.EndTime
}

// WeekAvailability groups slots by day of week. Every bucket is non-nil.
type WeekAvailability [DaysPerWeek][]AvailabilitySlot

// NewWeekAvailability buckets and orders the given slots by start time.
func NewWeekAvailability(slots []AvailabilitySlot) WeekAvailability {
	var week WeekAvailability
	for day := range week {
		week[day] = []AvailabilitySlot{}
	}
	for _, slot := range slots {
		if !ValidDay(slot.DayOfWeek) {
			continue
		}
		week[slot.DayOfWeek] = append(week[slot.DayOfWeek], slot)
	}
	for day := range week {
		bucket := week[day]
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].StartTime == bucket[j].StartTime {
				return bucket[i].EndTime < bucket[j].EndTime
			}
			return bucket[i].StartTime < bucket[j].StartTime
		})
	}
	return week
}

// Flatten returns all slots ordered by day then start time.
func (w WeekAvailability) Flatten() []AvailabilitySlot {
	out := make([]AvailabilitySlot, 0)
	for _, bucket := range w {
		out = append(out, bucket...)
	}
	return out
}

// Find returns the slot with the given id.
func (w WeekAvailability) Find(id string) (AvailabilitySlot, bool) {
	for _, bucket := range w {
		for _, slot := range bucket {
			if slot.ID == id {
				return slot, true
			}
		}
	}
	return AvailabilitySlot{}, false
}
