package transport

import (
	"strings"
	"time"
)

// SliceStyle is the period after which a tailed file is assumed to have been
// rotated by date.
type SliceStyle int

const (
	SliceDay SliceStyle = iota
	SliceMonth
	SliceYear
)

func (s SliceStyle) Layout() string {
	switch s {
	case SliceYear:
		return "2006"
	case SliceMonth:
		return "2006-01"
	default:
		return "2006-01-02"
	}
}

func (s SliceStyle) String() string {
	switch s {
	case SliceYear:
		return "Year"
	case SliceMonth:
		return "Month"
	default:
		return "Day"
	}
}

// ParseSliceStyle matches Year, Month or Day case-insensitively and falls
// back to Day for anything else.
func ParseSliceStyle(style string) SliceStyle {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "year":
		return SliceYear
	case "month":
		return SliceMonth
	default:
		return SliceDay
	}
}

type sliceFormatter struct {
	layout string
}

func (f sliceFormatter) key(t time.Time) string {
	return t.Format(f.layout)
}
