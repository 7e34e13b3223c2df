package threads

import (
	"bytes"
	"runtime"
	"strconv"
	"strings"
)

const maxStackBuffer = 64 << 20 // 64MB

// Thread is one live goroutine at the time of capture.
type Thread struct {
	ID          int64
	Name        string
	State       string
	Alive       bool
	Daemon      bool
	Interrupted bool
	Frames      []string
}

// Source produces the live threads of the process.
type Source interface {
	Threads() []Thread
}

// RuntimeSource reads every goroutine of the current process through
// runtime.Stack.
type RuntimeSource struct{}

func (RuntimeSource) Threads() []Thread {
	return parseStacks(stackDump())
}

func stackDump() []byte {
	buf := make([]byte, 64<<10)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) || len(buf) >= maxStackBuffer {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

// parseStacks splits the text printed by runtime.Stack into goroutines.
func parseStacks(dump []byte) []Thread {
	var threads []Thread
	for _, block := range bytes.Split(dump, []byte("\n\n")) {
		lines := strings.Split(strings.TrimRight(string(block), "\n"), "\n")
		if len(lines) == 0 || !strings.HasPrefix(lines[0], "goroutine ") {
			continue
		}
		th, ok := parseHeader(lines[0])
		if !ok {
			continue
		}
		for _, line := range lines[1:] {
			if strings.HasPrefix(line, "\t") && len(th.Frames) > 0 {
				last := len(th.Frames) - 1
				th.Frames[last] += " at " + strings.TrimSpace(line)
				continue
			}
			if line = strings.TrimSpace(line); line != "" {
				th.Frames = append(th.Frames, line)
			}
		}
		threads = append(threads, th)
	}
	return threads
}

// parseHeader reads lines like "goroutine 18 [chan receive, 3 minutes]:".
func parseHeader(header string) (Thread, bool) {
	rest := strings.TrimPrefix(header, "goroutine ")
	idStr, rest, _ := strings.Cut(rest, " ")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return Thread{}, false
	}

	open := strings.Index(rest, "[")
	end := strings.LastIndex(rest, "]")
	state := "unknown"
	if open >= 0 && end > open {
		state = rest[open+1 : end]
	}

	return Thread{
		ID:    id,
		Name:  "goroutine " + idStr,
		State: state,
		Alive: true,
	}, true
}
