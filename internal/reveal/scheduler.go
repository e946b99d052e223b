package reveal

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler arms periodic callbacks. The returned func cancels the job; after
// it returns no new invocation of fn is started.
type Scheduler interface {
	Every(period time.Duration, fn func()) (cancel func())
}

// CronScheduler runs jobs on a shared cron instance. Periods are rounded to
// whole seconds with a one second minimum, which is what cron.Every does.
type CronScheduler struct {
	cron *cron.Cron
}

func NewCronScheduler() *CronScheduler {
	logger := cron.VerbosePrintfLogger(log.Default())
	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))
	c.Start()

	log.Println("Reveal scheduler started")
	return &CronScheduler{cron: c}
}

func (s *CronScheduler) Every(period time.Duration, fn func()) func() {
	id := s.cron.Schedule(cron.Every(period), cron.FuncJob(fn))

	var once sync.Once
	return func() {
		once.Do(func() { s.cron.Remove(id) })
	}
}

// Jobs reports how many jobs are currently armed.
func (s *CronScheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Close stops the cron loop and waits for running jobs to finish.
func (s *CronScheduler) Close() {
	<-s.cron.Stop().Done()
	log.Println("Reveal scheduler stopped")
}

// ManualScheduler is a Scheduler whose clock only moves when Advance is
// called. Callbacks run on the goroutine calling Advance.
type ManualScheduler struct {
	mu   sync.Mutex
	next int
	jobs map[int]*manualJob
}

type manualJob struct {
	period  time.Duration
	elapsed time.Duration
	fn      func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]*manualJob)}
}

func (m *ManualScheduler) Every(period time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if period <= 0 {
		period = time.Millisecond
	}
	m.next++
	id := m.next
	m.jobs[id] = &manualJob{period: period, fn: fn}

	return func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	}
}

// Advance moves the clock forward by d and fires every job once per full
// period that elapsed. Jobs fire in the order they were armed.
func (m *ManualScheduler) Advance(d time.Duration) {
	type firing struct {
		id    int
		fn    func()
		times int
	}

	m.mu.Lock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var due []firing
	for _, id := range ids {
		job := m.jobs[id]
		job.elapsed += d
		n := int(job.elapsed / job.period)
		job.elapsed %= job.period
		if n > 0 {
			due = append(due, firing{id: id, fn: job.fn, times: n})
		}
	}
	m.mu.Unlock()

	for _, f := range due {
		for i := 0; i < f.times; i++ {
			if !m.armed(f.id) {
				break
			}
			f.fn()
		}
	}
}

// Jobs reports how many jobs are currently armed.
func (m *ManualScheduler) Jobs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *ManualScheduler) armed(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[id]
	return ok
}
