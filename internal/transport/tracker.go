package transport

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/MuchTitan/go-log-transport/internal/delivery"
	"github.com/sirupsen/logrus"
)

// Sender delivers one payload to the collector.
type Sender interface {
	Send(ctx context.Context, req delivery.Request) (delivery.Status, error)
}

// Tracker owns the cursor of a single TargetFile.
type Tracker struct {
	target TargetFile

	mu           sync.Mutex
	lastSliceKey string
	// index of the last delivered byte, -1 if nothing was sent in this slice
	lastOffset int64
}

func NewTracker(target TargetFile) *Tracker {
	return &Tracker{
		target:     target,
		lastOffset: -1,
	}
}

func (t *Tracker) Target() TargetFile {
	return t.target
}

// Cursor returns the current slice key and offset.
func (t *Tracker) Cursor() (string, int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSliceKey, t.lastOffset
}

func (t *Tracker) logger() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"path":   t.target.Path,
		"target": t.target.Name,
	})
}

// Prepare moves the cursor to the current end of file for targets that ignore
// history. The work runs in its own goroutine; the returned channel is closed
// once it has finished. Waiting on it is optional.
func (t *Tracker) Prepare(slice sliceFormatter, now time.Time) <-chan struct{} {
	done := make(chan struct{})
	if !t.target.IgnoreHistory {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		info, err := os.Stat(t.target.Path)
		if err != nil {
			t.logger().WithError(err).Warn("could not size file, history will be sent")
			return
		}

		key := slice.key(now)
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.lastSliceKey != key {
			t.lastSliceKey = key
			t.lastOffset = -1
		}
		// a cycle may already have read past this point
		if end := info.Size() - 1; end > t.lastOffset {
			t.lastOffset = end
		}
		t.logger().WithField("offset", t.lastOffset).Debug("skipping file history")
	}()
	return done
}

// ReadAndSend delivers everything appended since the last successful cycle.
// It reports false when the target is invalid and nothing was attempted.
func (t *Tracker) ReadAndSend(ctx context.Context, sender Sender, slice sliceFormatter, now time.Time, addr, appName string) (Delivery, bool) {
	if !t.target.Valid() {
		return Delivery{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	record := Delivery{
		Time:   now,
		Target: t.target.Name,
		Path:   t.target.Path,
	}
	log := t.logger()

	if key := slice.key(now); key != t.lastSliceKey {
		log.WithFields(logrus.Fields{"from": t.lastSliceKey, "to": key}).Debug("new slice, resetting cursor")
		t.lastSliceKey = key
		t.lastOffset = -1
	}

	data, err := readDelta(t.target.Path, t.lastOffset+1)
	if errors.Is(err, errTruncated) {
		log.WithField("offset", t.lastOffset).Info("file was truncated, reading from start")
		t.lastOffset = -1
		data, err = readDelta(t.target.Path, 0)
	}
	if err != nil {
		log.WithError(err).Error("content read failed")
		record.Outcome = OutcomeReadFailed
		record.Err = err
		return record, true
	}

	record.Bytes = len(data)
	if len(data) == 0 {
		log.Trace("no new content")
		record.Outcome = OutcomeSkipped
		return record, true
	}

	status, err := sender.Send(ctx, delivery.Request{
		Address: addr,
		AppName: appName,
		Target:  t.target.Name,
		Payload: data,
	})
	switch {
	case err != nil || status == delivery.StatusFailed:
		log.WithError(err).WithField("bytes", len(data)).Error("content send failed")
		record.Outcome = OutcomeSendFailed
		record.Err = err
	case status == delivery.StatusSkipped:
		record.Outcome = OutcomeSkipped
	default:
		t.lastOffset += int64(len(data))
		log.WithFields(logrus.Fields{"bytes": len(data), "offset": t.lastOffset}).Debug("content sent")
		record.Outcome = OutcomeSent
	}
	return record, true
}
