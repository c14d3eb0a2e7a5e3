package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/coursesync/syncengine/internal/remote"
	"github.com/coursesync/syncengine/internal/scheduler"
	"github.com/coursesync/syncengine/internal/store"
	"github.com/coursesync/syncengine/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	r := sync.New(s, remote.NewEmptyAdapter(), nil)
	_, err = scheduler.New(r, 0)
	assert.Error(t, err)
}

func TestSchedulerRunsCyclesOnTick(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.InsertCourse(context.Background(), store.NewCourseRequest{
		Title: "Algo", Semester: "2026-spring", DayOfWeek: "Mon", Period: 1,
	})
	require.NoError(t, err)

	adapter := remote.NewProgrammableAdapter()
	r := sync.New(s, adapter, nil)
	sch, err := scheduler.New(r, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, sch.Start(ctx))
	time.Sleep(80 * time.Millisecond)
	sch.Stop()

	assert.NotEmpty(t, adapter.CallLog)
}

func TestSchedulerStopIsIdempotentAndWaits(t *testing.T) {
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	r := sync.New(s, remote.NewEmptyAdapter(), nil)
	sch, err := scheduler.New(r, time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sch.Start(ctx))
	sch.Stop()
	sch.Stop() // second call must not panic or block
}
