package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padelbot/internal/timeparse"
	"padelbot/internal/visit"
)

func TestAdd_InvalidSpec(t *testing.T) {
	s := New(context.Background())
	err := s.Add("broken", "every now and then", func(context.Context) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule job broken")

	_, ok := s.Next("broken")
	assert.False(t, ok)
}

func TestScheduler_RunsJobWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type key struct{}
	ctx = context.WithValue(ctx, key{}, "padel")

	s := New(ctx)
	got := make(chan any, 1)
	require.NoError(t, s.Add("probe", "@every 1s", func(ctx context.Context) {
		select {
		case got <- ctx.Value(key{}):
		default:
		}
	}))

	s.Start()
	defer func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		assert.NoError(t, s.Stop(stopCtx))
	}()

	next, ok := s.Next("probe")
	require.True(t, ok)
	assert.Equal(t, timeparse.Moscow.String(), next.Location().String())

	select {
	case v := <-got:
		assert.Equal(t, "padel", v)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestAddPrune(t *testing.T) {
	monday := time.Date(2025, 6, 2, 10, 0, 0, 0, timeparse.Moscow)
	store := visit.NewStore(nil)
	_, err := store.Add("сегодня 11-12", monday)
	require.NoError(t, err)

	s := New(context.Background())
	require.NoError(t, s.AddPrune(store, "@every 1s", func() time.Time { return monday.Add(3 * time.Hour) }))
	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	assert.Eventually(t, func() bool { return store.Count() == 0 }, 5*time.Second, 50*time.Millisecond)
}
