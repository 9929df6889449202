package ports

import "time"

type SchedulerService interface {
	Start()
	Stop()
	// ScheduleEvery runs fn every interval, first run one interval from now.
	ScheduleEvery(interval time.Duration, fn func()) error
	WhenNextRun() time.Time
}
