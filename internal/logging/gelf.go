package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/Graylog2/go-gelf.v2/gelf"
)

// GELFHook mirrors log entries to a Graylog input.
type GELFHook struct {
	host   string
	levels []logrus.Level
	writer gelf.Writer
}

func NewGELFHook(addr, mode, host string, level logrus.Level) (*GELFHook, error) {
	if mode == "" {
		mode = "udp"
	}
	if host == "" {
		host, _ = os.Hostname()
	}

	var w gelf.Writer
	var err error
	switch mode {
	case "udp":
		w, err = gelf.NewUDPWriter(addr)
	case "tcp":
		w, err = gelf.NewTCPWriter(addr)
	default:
		return nil, fmt.Errorf("mode: '%v' is not supported", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s writer: %w", mode, err)
	}

	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, l := range logrus.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}

	return &GELFHook{
		host:   host,
		levels: levels,
		writer: w,
	}, nil
}

func (h *GELFHook) Levels() []logrus.Level {
	return h.levels
}

func (h *GELFHook) Fire(entry *logrus.Entry) error {
	extra := make(map[string]any, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		extra["_"+k] = v
	}

	msg := gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    entry.Message,
		TimeUnix: float64(entry.Time.UnixNano()) / 1e9,
		Level:    gelfLevel(entry.Level),
		Extra:    extra,
	}
	return h.writer.WriteMessage(&msg)
}

func (h *GELFHook) Close() error {
	if closer, ok := h.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func gelfLevel(l logrus.Level) int32 {
	switch l {
	case logrus.PanicLevel:
		return gelf.LOG_ALERT
	case logrus.FatalLevel:
		return gelf.LOG_CRIT
	case logrus.ErrorLevel:
		return gelf.LOG_ERR
	case logrus.WarnLevel:
		return gelf.LOG_WARNING
	case logrus.InfoLevel:
		return gelf.LOG_INFO
	default:
		return gelf.LOG_DEBUG
	}
}
