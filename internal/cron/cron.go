package cron

import (
	"sync"

	cronv3 "github.com/robfig/cron/v3"

	"github.com/plutushq/leadstream/internal/logger"
)

const (
	// GroupScraper is the group for recurring ingestion passes
	GroupScraper = "scraper"
)

// Per-group locks so a slow run is skipped rather than stacked.
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupScraper: new(sync.Mutex),
	},
}

func lockForGroup(group string) *sync.Mutex {
	jobLocks.Lock()
	defer jobLocks.Unlock()
	lock, ok := jobLocks.locks[group]
	if !ok {
		lock = new(sync.Mutex)
		jobLocks.locks[group] = lock
	}
	return lock
}

type CronManager struct {
	log    logger.Logger
	cron   *cronv3.Cron
	jobIDs map[string]cronv3.EntryID
}

func NewCronManager(log logger.Logger) *CronManager {
	return &CronManager{
		log:    log,
		cron:   cronv3.New(),
		jobIDs: make(map[string]cronv3.EntryID),
	}
}

// AddJob schedules job under the given group. If a previous run of the same
// group is still in progress when the schedule fires, the new run is skipped.
func (cm *CronManager) AddJob(group, name, schedule string, job func()) error {
	id, err := cm.cron.AddFunc(schedule, func() {
		lock := lockForGroup(group)
		if !lock.TryLock() {
			cm.log.Warnf("previous %s job still running, skipping %s", group, name)
			return
		}
		defer lock.Unlock()
		job()
	})
	if err != nil {
		return err
	}
	cm.jobIDs[name] = id
	cm.log.Infof("scheduled job %s (%s)", name, schedule)
	return nil
}

func (cm *CronManager) Start() {
	cm.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (cm *CronManager) Stop() {
	ctx := cm.cron.Stop()
	<-ctx.Done()
	cm.log.Info("cron manager stopped")
}
