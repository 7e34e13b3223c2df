package threads

import (
	"context"
	"time"

	"github.com/MuchTitan/go-log-transport/internal/delivery"
	"github.com/sirupsen/logrus"
)

// TargetName is the routing tag of every snapshot.
const TargetName = "jmx-threads"

type Sender interface {
	Send(ctx context.Context, req delivery.Request) (delivery.Status, error)
}

// Attempt describes one fired snapshot.
type Attempt struct {
	Bytes  int
	Status delivery.Status
	Err    error
}

// Exporter is not safe for concurrent use; the coordinator calls it under its
// gate.
type Exporter struct {
	interval  time.Duration
	source    Source
	sender    Sender
	lastFired time.Time
}

func NewExporter(interval time.Duration, source Source, sender Sender) *Exporter {
	if interval < time.Second {
		interval = time.Second
	}
	if source == nil {
		source = RuntimeSource{}
	}
	return &Exporter{
		interval: interval,
		source:   source,
		sender:   sender,
	}
}

// MaybeFire captures and sends a snapshot when the interval has elapsed since
// the last attempt. It reports false when nothing was due.
func (e *Exporter) MaybeFire(ctx context.Context, now time.Time, addr, appName string) (Attempt, bool) {
	if now.Sub(e.lastFired) < e.interval {
		return Attempt{}, false
	}
	// set before capture so a failing collector cannot speed up attempts
	e.lastFired = now

	content := Format(now, e.source.Threads())
	attempt := Attempt{Bytes: len(content), Status: delivery.StatusSkipped}
	if len(content) == 0 {
		return attempt, true
	}

	log := logrus.WithField("target", TargetName)
	attempt.Status, attempt.Err = e.sender.Send(ctx, delivery.Request{
		Address: addr,
		AppName: appName,
		Target:  TargetName,
		Payload: content,
	})
	if attempt.Err != nil || attempt.Status == delivery.StatusFailed {
		attempt.Status = delivery.StatusFailed
		log.WithError(attempt.Err).Error("thread snapshot send failed")
		return attempt, true
	}
	log.WithField("bytes", len(content)).Debug("thread snapshot sent")
	return attempt, true
}
