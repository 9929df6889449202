package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArkLabsHQ/dunder/internal/core/ports"
	scheduler "github.com/ArkLabsHQ/dunder/internal/infrastructure/scheduler/gocron"
	"github.com/stretchr/testify/require"
)

var schedulerTypes = map[string]func() ports.SchedulerService{
	"gocron": func() ports.SchedulerService {
		return scheduler.NewScheduler()
	},
}

func TestSchedulerService(t *testing.T) {
	for schedulerType, factory := range schedulerTypes {
		t.Run(schedulerType, func(t *testing.T) {
			testScheduler(t, factory)
		})
	}
}

func testScheduler(t *testing.T, newScheduler func() ports.SchedulerService) {
	t.Run("schedule every", func(t *testing.T) {
		svc := newScheduler()
		svc.Start()
		defer svc.Stop()

		done := make(chan struct{}, 10)
		job := func() {
			done <- struct{}{}
		}

		now := time.Now()
		err := svc.ScheduleEvery(time.Second, job)
		require.NoError(t, err)

		nextRun := svc.WhenNextRun()
		require.False(t, nextRun.IsZero())
		require.True(t, nextRun.After(now))

		// runs more than once
		for i := 0; i < 2; i++ {
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				require.Fail(t, "job did not execute within expected time")
			}
		}
	})

	t.Run("invalid job", func(t *testing.T) {
		svc := newScheduler()
		svc.Start()
		defer svc.Stop()

		err := svc.ScheduleEvery(0, func() {})
		require.Error(t, err)

		err = svc.ScheduleEvery(time.Second, nil)
		require.Error(t, err)

		require.True(t, svc.WhenNextRun().IsZero())
	})

	t.Run("reschedule replaces job", func(t *testing.T) {
		svc := newScheduler()
		svc.Start()
		defer svc.Stop()

		var first, second atomic.Int32
		err := svc.ScheduleEvery(time.Hour, func() { first.Add(1) })
		require.NoError(t, err)

		err = svc.ScheduleEvery(500*time.Millisecond, func() { second.Add(1) })
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return second.Load() > 0
		}, 5*time.Second, 100*time.Millisecond)
		require.Zero(t, first.Load())
	})

	t.Run("stop", func(t *testing.T) {
		svc := newScheduler()
		svc.Start()

		var runs atomic.Int32
		err := svc.ScheduleEvery(500*time.Millisecond, func() { runs.Add(1) })
		require.NoError(t, err)

		svc.Stop()
		require.True(t, svc.WhenNextRun().IsZero())

		time.Sleep(1500 * time.Millisecond)
		require.Zero(t, runs.Load())
	})
}
