package eventdomain

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// weekdayNames are matched against channel names after accent folding.
var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"lunes", time.Monday},
	{"martes", time.Tuesday},
	{"miercoles", time.Wednesday},
	{"jueves", time.Thursday},
	{"viernes", time.Friday},
	{"sabado", time.Saturday},
	{"domingo", time.Sunday},
}

// Fold lowercases s and strips combining marks, so "Miércoles" folds to "miercoles".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// MatchWeekday finds the weekday named inside a channel name.
func MatchWeekday(channelName string) (time.Weekday, error) {
	folded := Fold(channelName)
	for _, w := range weekdayNames {
		if strings.Contains(folded, w.name) {
			return w.day, nil
		}
	}
	return 0, NewValidationError("channel", "channel %q does not name a weekday", channelName)
}

// Slot is a half-hour time of day.
type Slot struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (s Slot) String() string { return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute) }

const (
	firstSlotHour = 12
	lastSlotHour  = 23
)

// TimeSlots returns the selectable start times, 12:00 through 23:30.
func TimeSlots() []Slot {
	out := make([]Slot, 0, (lastSlotHour-firstSlotHour+1)*2)
	for h := firstSlotHour; h <= lastSlotHour; h++ {
		out = append(out, Slot{Hour: h}, Slot{Hour: h, Minute: 30})
	}
	return out
}

// ParseSlot parses "HH:MM" and requires it to be one of TimeSlots.
func ParseSlot(s string) (Slot, error) {
	var slot Slot
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &slot.Hour, &slot.Minute); err != nil {
		return Slot{}, NewValidationError("time", "could not read %q, use HH:MM", s)
	}
	for _, candidate := range TimeSlots() {
		if candidate == slot {
			return slot, nil
		}
	}
	return Slot{}, NewValidationError("time", "%s is not an available slot", slot)
}

// NextOccurrence returns the next instant on weekday at slot, with offset added to the
// slot's wall-clock time. Slots are UTC wall-clock times whatever the location of now.
// An occurrence today that is not after now rolls to next week.
func NextOccurrence(now time.Time, weekday time.Weekday, slot Slot, offset time.Duration) time.Time {
	now = now.UTC()
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	y, m, d := now.Date()
	candidate := time.Date(y, m, d+days, slot.Hour, slot.Minute, 0, 0, time.UTC).Add(offset)
	if !candidate.After(now) {
		candidate = time.Date(y, m, d+days+7, slot.Hour, slot.Minute, 0, 0, time.UTC).Add(offset)
	}
	return candidate
}
