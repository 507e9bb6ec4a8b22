// Package geofence holds the fence zone model and the spatial/temporal
// matching logic attendance decisions are built on.
package geofence

import (
	"fmt"
	"slices"
	"strings"
	"time"

	id "geoattend/pkg/domain"
	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
)

// TimeOfDay is a local wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation, "time %q must be in HH:MM format", raw)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// TimeOfDayFromClock extracts the wall-clock minute of the given instant.
// The instant must already be in the reference zone.
func TimeOfDayFromClock(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// weekdayNames maps wire names to time.Weekday. Names follow the uppercase
// convention the mobile clients already send.
var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// ParseWeekday parses an uppercase weekday wire name.
func ParseWeekday(raw string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return 0, dErrors.Newf(dErrors.CodeValidation, "unknown weekday %q", raw)
	}
	return day, nil
}

// ParseWeekdays parses a set of weekday wire names, deduplicating and
// ordering Sunday-first so zone comparisons are deterministic.
func ParseWeekdays(raw []string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool, len(raw))
	days := make([]time.Weekday, 0, len(raw))
	for _, r := range raw {
		day, err := ParseWeekday(r)
		if err != nil {
			return nil, err
		}
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	slices.Sort(days)
	return days, nil
}

// WeekdayName returns the uppercase wire name for a weekday.
func WeekdayName(day time.Weekday) string {
	return strings.ToUpper(day.String())
}

// Zone is a named circular geographic region with a time-of-day and
// day-of-week eligibility window. Zones are value objects here; the service
// never mutates a zone after handing it out.
type Zone struct {
	ID           id.GeofenceID
	Name         string
	Center       geo.Coordinate
	RadiusMeters float64
	StartTime    TimeOfDay
	EndTime      TimeOfDay
	AllowedDays  []time.Weekday
	Active       bool

	// Priority orders overlapping zones; the lowest value wins.
	Priority int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces the zone invariants before a zone enters the store.
func (z *Zone) Validate() error {
	if strings.TrimSpace(z.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if err := z.Center.Validate(); err != nil {
		return err
	}
	if z.RadiusMeters <= 0 {
		return dErrors.New(dErrors.CodeValidation, "radius_meters must be greater than zero")
	}
	// Windows spanning midnight are not supported.
	if z.StartTime > z.EndTime {
		return dErrors.New(dErrors.CodeValidation, "start_time must not be after end_time")
	}
	if len(z.AllowedDays) == 0 {
		return dErrors.New(dErrors.CodeValidation, "allowed_days must not be empty")
	}
	return nil
}

// AllowsDay reports whether the weekday is in the zone's allowed set.
func (z *Zone) AllowsDay(day time.Weekday) bool {
	return slices.Contains(z.AllowedDays, day)
}

// InTimeWindow reports whether the wall-clock minute falls inside the zone's
// window, inclusive at both ends.
func (z *Zone) InTimeWindow(t TimeOfDay) bool {
	return t >= z.StartTime && t <= z.EndTime
}
