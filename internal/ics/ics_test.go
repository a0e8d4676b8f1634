package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padelbot/internal/timeparse"
	"padelbot/internal/visit"
)

func TestEncode_RoundTrip(t *testing.T) {
	monday := time.Date(2025, 6, 2, 10, 0, 0, 0, timeparse.Moscow)
	store := visit.NewStore(nil)
	_, err := store.Add("пт 16-17", monday)
	require.NoError(t, err)
	_, err = store.Add("12 июля, 16:30-17:30", monday)
	require.NoError(t, err)

	visits := store.ListUpcoming(60, monday)
	require.Len(t, visits, 2)

	body := Encode(visits, Options{})
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "METHOD:PUBLISH")
	assert.Contains(t, body, "PRODID:"+defaultProductID)
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))

	got, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i, v := range got {
		assert.Equal(t, visits[i].ID, v.ID)
		assert.True(t, visits[i].Start.Equal(v.Start), "start %d", i)
		assert.True(t, visits[i].End.Equal(v.End), "end %d", i)
		assert.Equal(t, visits[i].OriginalText, v.OriginalText)
		assert.True(t, monday.Equal(v.CreatedAt), "dtstamp %d", i)
		assert.Equal(t, timeparse.Moscow, v.Start.Location())
	}
}

func TestEncode_Empty(t *testing.T) {
	body := Encode(nil, Options{Name: "Корт"})
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.NotContains(t, body, "BEGIN:VEVENT")

	got, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_SkipsBrokenEvents(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"DTSTART:20250606T130000Z",
		"DTEND:20250606T140000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok",
		"DTSTAMP:20250602T070000Z",
		"DTSTART:20250606T130000Z",
		"DTEND:20250606T140000Z",
		`DESCRIPTION:12 июля\, 16:30-17:30`,
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	got, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
	assert.Equal(t, "12 июля, 16:30-17:30", got[0].OriginalText)
	assert.Equal(t, 16, got[0].Start.Hour())
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)
}

func TestParseICSTime(t *testing.T) {
	utc, err := parseICSTime("20250606T130000Z")
	require.NoError(t, err)
	assert.True(t, utc.Equal(time.Date(2025, 6, 6, 16, 0, 0, 0, timeparse.Moscow)))

	floating, err := parseICSTime("20250606T160000")
	require.NoError(t, err)
	assert.True(t, floating.Equal(utc))

	date, err := parseICSTime("20250606")
	require.NoError(t, err)
	assert.Equal(t, 6, date.Day())

	_, err = parseICSTime(" ")
	assert.Error(t, err)
}
