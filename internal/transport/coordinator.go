package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MuchTitan/go-log-transport/internal/delivery"
	"github.com/MuchTitan/go-log-transport/internal/threads"
	"github.com/sirupsen/logrus"
)

// Coordinator owns every tracker and the thread snapshot exporter. Run may be
// called from several goroutines; cycles are serialised by a single gate.
type Coordinator struct {
	settings  Settings
	sender    Sender
	trackers  []*Tracker
	exporter  *threads.Exporter
	observers []Observer

	gate      sync.Mutex
	running   atomic.Bool
	sliceOnce sync.Once
	slice     sliceFormatter
	now       func() time.Time
}

type Option func(*options)

type options struct {
	observers    []Observer
	threadSource threads.Source
}

// WithObserver registers an observer of delivery attempts.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observers = append(opts.observers, o)
	}
}

// WithThreadSource replaces the runtime goroutine source.
func WithThreadSource(src threads.Source) Option {
	return func(opts *options) {
		opts.threadSource = src
	}
}

func NewCoordinator(settings Settings, sender Sender, opts ...Option) (*Coordinator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Coordinator{
		settings:  settings,
		sender:    sender,
		observers: o.observers,
		now:       time.Now,
	}
	for _, target := range settings.Targets {
		c.trackers = append(c.trackers, NewTracker(target))
	}
	if settings.Threads.Enabled {
		c.exporter = threads.NewExporter(settings.Threads.Interval, o.threadSource, sender)
	}
	return c, nil
}

func (c *Coordinator) Trackers() []*Tracker {
	return c.trackers
}

// Running reports whether a cycle is in progress. It is informational only.
func (c *Coordinator) Running() bool {
	return c.running.Load()
}

// slicer fixes the slice layout the first time it is needed.
func (c *Coordinator) slicer() sliceFormatter {
	c.sliceOnce.Do(func() {
		c.slice = sliceFormatter{layout: c.settings.SliceStyle.Layout()}
		logrus.WithField("sliceStyle", c.settings.SliceStyle.String()).Debug("slice formatter initialised")
	})
	return c.slice
}

// Prepare starts the history sizing of every ignoreHistory target outside the
// gate. The returned channel is closed once all of them have finished.
// Running a cycle before that is safe. The cycle formatter is left to the
// first Run.
func (c *Coordinator) Prepare() <-chan struct{} {
	slice := sliceFormatter{layout: c.settings.SliceStyle.Layout()}
	now := c.now()

	var wg sync.WaitGroup
	for _, tr := range c.trackers {
		wg.Add(1)
		go func(done <-chan struct{}) {
			defer wg.Done()
			<-done
		}(tr.Prepare(slice, now))
	}

	all := make(chan struct{})
	go func() {
		wg.Wait()
		close(all)
	}()
	return all
}

// Run executes one cycle. It satisfies cron.Job.
func (c *Coordinator) Run() {
	c.RunContext(context.Background())
}

// RunContext executes one cycle: every valid tracker in configured order, then
// the thread snapshot when due. Failures are logged and never returned.
func (c *Coordinator) RunContext(ctx context.Context) {
	c.gate.Lock()
	defer c.gate.Unlock()
	c.running.Store(true)
	defer c.running.Store(false)

	slice := c.slicer()
	if c.settings.ServerAddress == "" {
		logrus.Trace("no server address configured, skipping cycle")
		return
	}

	start := time.Now()
	for _, o := range c.observers {
		if co, ok := o.(CycleObserver); ok {
			co.CycleStarted()
		}
	}

	for _, tr := range c.trackers {
		c.runTracker(ctx, tr, slice)
	}
	if c.exporter != nil {
		c.runExporter(ctx)
	}

	elapsed := time.Since(start)
	for _, o := range c.observers {
		if co, ok := o.(CycleObserver); ok {
			co.CycleFinished(elapsed)
		}
	}
	logrus.WithField("elapsed", elapsed.String()).Debug("transport cycle finished")
}

func (c *Coordinator) runTracker(ctx context.Context, tr *Tracker, slice sliceFormatter) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("target", tr.Target().Name).Errorf("tracker panicked: %v", r)
		}
	}()

	if d, ok := tr.ReadAndSend(ctx, c.sender, slice, c.now(), c.settings.ServerAddress, c.settings.AppName); ok {
		c.observe(d)
	}
}

func (c *Coordinator) runExporter(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("target", threads.TargetName).Errorf("thread snapshot panicked: %v", r)
		}
	}()

	now := c.now()
	attempt, fired := c.exporter.MaybeFire(ctx, now, c.settings.ServerAddress, c.settings.AppName)
	if !fired {
		return
	}

	d := Delivery{
		Time:    now,
		Target:  threads.TargetName,
		Bytes:   attempt.Bytes,
		Outcome: OutcomeSent,
		Err:     attempt.Err,
	}
	switch attempt.Status {
	case delivery.StatusFailed:
		d.Outcome = OutcomeSendFailed
	case delivery.StatusSkipped:
		d.Outcome = OutcomeSkipped
	}
	c.observe(d)
}

func (c *Coordinator) observe(d Delivery) {
	for _, o := range c.observers {
		o.Observe(d)
	}
}
