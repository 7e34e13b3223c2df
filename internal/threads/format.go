package threads

import (
	"bytes"
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05.000"

// Format renders one timestamped block per thread, one stack frame per line.
func Format(now time.Time, threads []Thread) []byte {
	var buf bytes.Buffer
	stamp := now.Format(timestampLayout)
	for _, th := range threads {
		fmt.Fprintf(&buf, "[%s]\n%s  [Id=%d, State=%s, Alive=%t, Daemon=%t, Interrupted=%t]\n",
			stamp, th.Name, th.ID, th.State, th.Alive, th.Daemon, th.Interrupted)
		for _, frame := range th.Frames {
			buf.WriteString("  ")
			buf.WriteString(frame)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
