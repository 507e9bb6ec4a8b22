package geofence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "geoattend/pkg/domain-errors"
	"geoattend/pkg/geo"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Run("parses HH:MM", func(t *testing.T) {
		tod, err := ParseTimeOfDay("09:30")
		require.NoError(t, err)
		assert.Equal(t, TimeOfDay(9*60+30), tod)
		assert.Equal(t, "09:30", tod.String())
	})

	t.Run("midnight and end of day", func(t *testing.T) {
		start, err := ParseTimeOfDay("00:00")
		require.NoError(t, err)
		assert.Equal(t, TimeOfDay(0), start)

		end, err := ParseTimeOfDay("23:59")
		require.NoError(t, err)
		assert.Equal(t, TimeOfDay(23*60+59), end)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, raw := range []string{"", "9am", "25:00", "12:61", "12-00"} {
			_, err := ParseTimeOfDay(raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", raw)
		}
	})
}

func TestParseWeekdays(t *testing.T) {
	t.Run("parses and deduplicates", func(t *testing.T) {
		days, err := ParseWeekdays([]string{"MONDAY", "friday", "Monday"})
		require.NoError(t, err)
		assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, days)
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := ParseWeekdays([]string{"MONDAY", "FUNDAY"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("round-trips wire names", func(t *testing.T) {
		assert.Equal(t, "WEDNESDAY", WeekdayName(time.Wednesday))
		day, err := ParseWeekday(WeekdayName(time.Sunday))
		require.NoError(t, err)
		assert.Equal(t, time.Sunday, day)
	})
}

func TestZoneValidate(t *testing.T) {
	valid := func() *Zone {
		return &Zone{
			Name:         "HQ",
			Center:       geo.Coordinate{Lat: 52.52, Lon: 13.405},
			RadiusMeters: 150,
			StartTime:    9 * 60,
			EndTime:      18 * 60,
			AllowedDays:  []time.Weekday{time.Monday},
		}
	}

	t.Run("valid zone passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("blank name rejected", func(t *testing.T) {
		z := valid()
		z.Name = "   "
		assert.True(t, dErrors.HasCode(z.Validate(), dErrors.CodeValidation))
	})

	t.Run("out-of-range center rejected", func(t *testing.T) {
		z := valid()
		z.Center.Lat = 123
		assert.True(t, dErrors.HasCode(z.Validate(), dErrors.CodeValidation))
	})

	t.Run("non-positive radius rejected", func(t *testing.T) {
		z := valid()
		z.RadiusMeters = 0
		assert.True(t, dErrors.HasCode(z.Validate(), dErrors.CodeValidation))
	})

	t.Run("window spanning midnight rejected", func(t *testing.T) {
		z := valid()
		z.StartTime, _ = ParseTimeOfDay("22:00")
		z.EndTime, _ = ParseTimeOfDay("06:00")
		assert.True(t, dErrors.HasCode(z.Validate(), dErrors.CodeValidation))
	})

	t.Run("empty allowed days rejected", func(t *testing.T) {
		z := valid()
		z.AllowedDays = nil
		assert.True(t, dErrors.HasCode(z.Validate(), dErrors.CodeValidation))
	})
}
