package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday, 2 June 2025, 10:00 Moscow time.
var monday = time.Date(2025, 6, 2, 10, 0, 0, 0, Moscow)

func TestParser_Resolve(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name      string
		input     string
		wantStart string
		wantEnd   string
	}{
		{"weekday abbreviation with hour range", "пт 16-17", "2025-06-06 16:00", "2025-06-06 17:00"},
		{"relative day with от/до", "Сегодня от 16 до 17", "2025-06-02 16:00", "2025-06-02 17:00"},
		{"day and month with clock range", "12 июля, 16:30-17:30", "2025-07-12 16:30", "2025-07-12 17:30"},
		{"single time clamps at midnight", "завтра в 23:30", "2025-06-03 23:30", "2025-06-03 23:59"},
		{"same weekday goes to next week", "понедельник 10:00", "2025-06-09 10:00", "2025-06-09 11:00"},
		{"full date with с/до", "12 июля 2025 с 10:00 до 11:30", "2025-07-12 10:00", "2025-07-12 11:30"},
		{"accusative weekday with в HH", "в среду в 18", "2025-06-04 18:00", "2025-06-04 19:00"},
		{"время keyword", "Суббота, время 09:15", "2025-06-07 09:15", "2025-06-07 10:15"},
		{"dotted до range", "послезавтра 16.00 до 17.30", "2025-06-04 16:00", "2025-06-04 17:30"},
		{"past day rolls to next year", "1 мая 16-17", "2026-05-01 16:00", "2026-05-01 17:00"},
		{"today's date stays this year", "2 июня 20-21", "2025-06-02 20:00", "2025-06-02 21:00"},
		{"bare clock followed by для", "завтра 16:00 для двоих", "2025-06-03 16:00", "2025-06-03 17:00"},
		{"multiline message", "Корт забронирован!\nВоскресенье\n18:00-19:30", "2025-06-08 18:00", "2025-06-08 19:30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Resolve(tt.input, monday)
			require.NoError(t, err)

			start, end := res.Interval()
			assert.Equal(t, tt.wantStart, start.Format("2006-01-02 15:04"))
			assert.Equal(t, tt.wantEnd, end.Format("2006-01-02 15:04"))
			assert.Equal(t, Moscow, start.Location())
		})
	}
}

func TestParser_ResolveErrors(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"no date", "просто текст 16-17", ErrDateUnresolved},
		{"no time", "завтра", ErrTimeUnresolved},
		{"empty", "", ErrDateUnresolved},
		{"impossible day", "30 февраля 16-17", ErrInvalidCalendarDate},
		{"impossible day with year", "31 апреля 2025 16-17", ErrInvalidCalendarDate},
		{"inverted range", "завтра 23-01", ErrTimeUnresolved},
		{"out of range hours", "завтра 25-26", ErrTimeUnresolved},
		{"reversed clock range", "завтра 17:00-16:00", ErrTimeUnresolved},
		{"reversed до range", "завтра с 17:00 до 16:00", ErrTimeUnresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Resolve(tt.input, monday)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParser_InvalidCalendarDateIsDateUnresolved(t *testing.T) {
	_, err := NewParser(nil).ResolveDate("30 февраля", monday)
	assert.ErrorIs(t, err, ErrInvalidCalendarDate)
	assert.ErrorIs(t, err, ErrDateUnresolved)
}

func TestParser_DateCascadeContinuesAfterInvalidDate(t *testing.T) {
	got, err := NewParser(nil).ResolveDate("30 февраля 2025, но можно в пт", monday)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-06", got.Format("2006-01-02"))
}

func TestParser_DateOrder(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full date beats weekday", "пт, 12 июля 2025", "2025-07-12"},
		{"weekday beats relative", "завтра или в четверг", "2025-06-05"},
		{"relative beats bare date", "сегодня, а не 12 июля", "2025-06-02"},
		{"leap day with year", "29 февраля 2024", "2024-02-29"},
		{"nominative month", "5 август", "2025-08-05"},
		{"skips non-month words", "с 16 до 17 12 июля", "2025-07-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ResolveDate(tt.input, monday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestParser_RelativeKeywords(t *testing.T) {
	// Wednesday, so "вт" inside "завтра" would point at a different day.
	wednesday := time.Date(2025, 6, 4, 21, 30, 0, 0, Moscow)
	p := NewParser(nil)

	tests := []struct {
		input string
		want  string
	}{
		{"сегодня", "2025-06-04"},
		{"завтра", "2025-06-05"},
		{"Послезавтра", "2025-06-06"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := p.ResolveDate(tt.input, wednesday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
			assert.Equal(t, 0, got.Hour())
		})
	}
}

func TestParser_NowIsReadInMoscow(t *testing.T) {
	// 22:30 UTC on the 1st is already the 2nd in Moscow.
	now := time.Date(2025, 6, 1, 22, 30, 0, 0, time.UTC)
	got, err := NewParser(nil).ResolveDate("сегодня", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", got.Format("2006-01-02"))
	assert.Equal(t, Moscow, got.Location())
}

func TestParser_WeekdayAlwaysInFuture(t *testing.T) {
	p := NewParser(nil)
	vocab := DefaultVocabulary()

	for offset := 0; offset < 7; offset++ {
		now := monday.AddDate(0, 0, offset)
		today := midnight(now)

		for _, w := range vocab.Weekdays {
			got, err := p.ResolveDate(w.Name+" 16-17", now)
			require.NoError(t, err, w.Name)

			assert.Equal(t, w.Weekday, got.Weekday(), "%s from %s", w.Name, now.Weekday())
			assert.True(t, got.After(today), "%s from %s", w.Name, now.Weekday())
			assert.LessOrEqual(t, got.Sub(today), 7*24*time.Hour)
		}
	}
}

func TestParser_AbsoluteDateIgnoresNow(t *testing.T) {
	p := NewParser(nil)
	for _, now := range []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, Moscow),
		monday,
		time.Date(2031, 12, 31, 23, 59, 0, 0, Moscow),
	} {
		got, err := p.ResolveDate("12 июля 2025", now)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-12", got.Format("2006-01-02"))
	}
}

func TestParser_BareDateYear(t *testing.T) {
	p := NewParser(nil)
	vocab := DefaultVocabulary()

	for _, m := range vocab.Months {
		got, err := p.ResolveDate("15 "+m.Name, monday)
		require.NoError(t, err, m.Name)

		wantYear := monday.Year()
		if time.Date(monday.Year(), m.Month, 15, 0, 0, 0, 0, Moscow).Before(midnight(monday)) {
			wantYear++
		}
		assert.Equal(t, wantYear, got.Year(), m.Name)
		assert.Equal(t, m.Month, got.Month(), m.Name)
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("вт 18-19", "вт", true))
	assert.True(t, containsWord("игра (вт) 18-19", "вт", true))
	assert.False(t, containsWord("завтра 18-19", "вт", true))
	assert.False(t, containsWord("всё как обычно", "вс", true))
	assert.True(t, containsWord("завтра 18-19", "вт", false))
	assert.True(t, containsWord("завтра, вт", "вт", true))
}
