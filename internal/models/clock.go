package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds clock values.
const MinutesPerDay = 24 * 60

// ParseClock converts an "HH:MM" wall-clock string into minutes after midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 || !twoDigits(parts[0]) || !twoDigits(parts[1]) {
		return 0, fmt.Errorf("clock %q must be HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("clock %q has invalid hour", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock %q has invalid minute", value)
	}
	return hours*60 + minutes, nil
}

// twoDigits rejects signs and spaces so stored clocks always compare correctly as strings.
func twoDigits(part string) bool {
	return len(part) == 2 && part[0] >= '0' && part[0] <= '9' && part[1] >= '0' && part[1] <= '9'
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidDay reports whether day is 0 (Sunday) through 6 (Saturday).
func ValidDay(day int) bool {
	return day >= 0 && day < DaysPerWeek
}
