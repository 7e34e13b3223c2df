package threads

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultInterval = 300 * time.Second

var intervalPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

type unit byte

const (
	unitSecond unit = 's'
	unitMinute unit = 'm'
	unitHour   unit = 'h'
	unitDay    unit = 'd'
)

func (u unit) multiplier() time.Duration {
	switch u {
	case unitMinute:
		return time.Minute
	case unitHour:
		return time.Hour
	case unitDay:
		return 24 * time.Hour
	default:
		return time.Second
	}
}

// ParseInterval reads "<digits><unit>" with unit one of s, m, h or d. Any
// other input, including zero, yields DefaultInterval.
func ParseInterval(s string) time.Duration {
	m := intervalPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return DefaultInterval
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return DefaultInterval
	}
	mult := unit(m[2][0]).multiplier()
	if n > math.MaxInt64/int64(mult) {
		return DefaultInterval
	}
	return time.Duration(n) * mult
}
