package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padelbot/internal/ics"
	"padelbot/internal/timeparse"
	"padelbot/internal/visit"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseCmd_Text(t *testing.T) {
	out, err := run(t, "parse", "--now", "2025-06-02T10:00:00+03:00", "пт", "16-17")
	require.NoError(t, err)
	assert.Equal(t, "06.06.2025 16:00-17:00\n2025-06-06T16:00:00+03:00\n2025-06-06T17:00:00+03:00\n", out)
}

func TestParseCmd_TextUnresolved(t *testing.T) {
	out, err := run(t, "parse", "--now", "2025-06-02T10:00:00+03:00", "завтра", "17:00-16:00")
	require.ErrorIs(t, err, timeparse.ErrTimeUnresolved)
	assert.Contains(t, out, "не удалось распознать")
}

func TestParseCmd_ICS(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, timeparse.Moscow)
	store := visit.NewStore(nil)
	for _, text := range []string{"завтра 9-10", "пт 16:30-17:30"} {
		_, err := store.Add(text, now)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "visits.ics")
	body := ics.Encode(store.ListUpcoming(visit.DefaultHorizonDays, now), ics.Options{Now: now})
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := run(t, "parse", "--ics", path)
	require.NoError(t, err)
	assert.Equal(t, "03.06.2025 09:00-10:00 \"завтра 9-10\"\n06.06.2025 16:30-17:30 \"пт 16:30-17:30\"\n", out)
}

func TestParseCmd_ICSErrors(t *testing.T) {
	_, err := run(t, "parse", "--ics", filepath.Join(t.TempDir(), "missing.ics"))
	require.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(t.TempDir(), "empty.ics")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = run(t, "parse", "--ics", empty)
	require.Error(t, err)

	_, err = run(t, "parse", "--ics", empty, "пт 16-17")
	require.Error(t, err, "text and --ics are exclusive")
}
