package export

import "time"

// Timetable is a rendered list of lesson occurrences for one enrollment.
type Timetable struct {
	Title    string
	Course   string
	Student  string
	Teacher  string
	Location *time.Location
	Entries  []TimetableEntry
}

// TimetableEntry is one lesson row.
type TimetableEntry struct {
	Number int
	Total  int
	Start  time.Time
	End    time.Time
}

var timetableHeaders = []string{"#", "Date", "Day", "Start", "End", "Minutes"}

func (t Timetable) rows() [][]string {
	loc := t.Location
	if loc == nil {
		loc = time.Local
	}
	out := make([][]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		start, end := e.Start.In(loc), e.End.In(loc)
		number := itoa(e.Number)
		if e.Total > 0 {
			number += "/" + itoa(e.Total)
		}
		out = append(out, []string{
			number,
			start.Format("2006-01-02"),
			start.Weekday().String(),
			start.Format("15:04"),
			end.Format("15:04"),
			itoa(int(end.Sub(start).Minutes())),
		})
	}
	return out
}
