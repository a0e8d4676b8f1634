package timeparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"с HH:MM до HH:MM", "с 16:00 до 17:30", "16:00-17:30"},
		{"от HH до HH", "от 16 до 17", "16:00-17:00"},
		{"dotted до", "16.00 до 17.00", "16:00-17:00"},
		{"hour range", "16-17", "16:00-17:00"},
		{"hour range with spaces", "16 - 17", "16:00-17:00"},
		{"hour range with en dash", "16–17", "16:00-17:00"},
		{"clock range", "10:00-11:30", "10:00-11:30"},
		{"clock range not read as hours", "16:30-17:30", "16:30-17:30"},
		{"clock range with spaces", "10:00 - 11:00", "10:00-11:00"},
		{"в HH", "в 16", "16:00-17:00"},
		{"в HH:MM", "в 16:30", "16:30-17:30"},
		{"время HH:MM", "время 18:45", "18:45-19:45"},
		{"bare clock", "корт 18:45", "18:45-19:45"},
		{"bare clock before a word starting with до", "16:00 для двоих", "16:00-17:00"},
		{"bare clock before a word starting with о", "16:00 около корта", "16:00-17:00"},
		{"bare clock after a word ending in до", "надо 16:00", "16:00-17:00"},
		{"single time clamps", "в 23:30", "23:30-23:59"},
		{"hour 23 clamps", "в 23", "23:00-23:59"},
		{"invalid range falls through to single time", "25-26 в 16", "16:00-17:00"},
		{"до range beats hour range", "с 9 до 10, не 16-17", "09:00-10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, err := ResolveTime(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, span.Start.String()+"-"+span.End.String())
		})
	}
}

func TestResolveTime_Unresolved(t *testing.T) {
	for _, input := range []string{
		"",
		"без времени",
		"23-01",
		"в 24:00",
		"в 23:59",
		"16:75",
		"17:00-16:00",
		"с 17:00 до 16:00",
		"17:00 до 16:00",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ResolveTime(input)
			assert.ErrorIs(t, err, ErrTimeUnresolved)
		})
	}
}

func TestMatchers_Independent(t *testing.T) {
	_, ok := matchHourRange("16:30-17:30")
	assert.False(t, ok, "hour range must not take minutes of a clock range")

	span, ok := matchClockRange("16:30-17:30")
	require.True(t, ok)
	assert.Equal(t, Clock{16, 30}, span.Start)

	_, ok = matchBareClock("16:00 до 17:00")
	assert.False(t, ok, "neither end of a range is a standalone time")

	_, ok = matchBareClock("-16:00")
	assert.False(t, ok, "right end of a dash range is not a standalone time")

	_, ok = matchBareClock("16:00-")
	assert.False(t, ok)

	_, ok = matchAtHour("в 16:00")
	assert.False(t, ok)

	c, ok := matchAtHour("игра в 9 утра")
	require.True(t, ok)
	assert.Equal(t, Clock{9, 0}, c)

	_, ok = matchAtHour("иванов 9")
	assert.False(t, ok)
}
