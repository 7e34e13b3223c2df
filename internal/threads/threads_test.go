package threads

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MuchTitan/go-log-transport/internal/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, req delivery.Request) (delivery.Status, error) {
	args := m.Called(req)
	return args.Get(0).(delivery.Status), args.Error(1)
}

type staticSource []Thread

func (s staticSource) Threads() []Thread { return s }

var sample = staticSource{
	{ID: 1, Name: "goroutine 1", State: "running", Alive: true, Frames: []string{"main.main() at /app/main.go:10 +0x1d"}},
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"5m", 5 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{" 10s ", 10 * time.Second},
		{"", DefaultInterval},
		{"10", DefaultInterval},
		{"10x", DefaultInterval},
		{"m5", DefaultInterval},
		{"-5s", DefaultInterval},
		{"0s", DefaultInterval}, // zero is not raised to the 1s floor
		{"1.5h", DefaultInterval},
		{"99999999999999999999d", DefaultInterval},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInterval(tt.in))
		})
	}
}

func TestExporter_MaybeFireCadence(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything).Return(delivery.StatusSent, nil)

	e := NewExporter(60*time.Second, sample, sender)
	base := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	e.lastFired = base

	_, fired := e.MaybeFire(context.Background(), base.Add(59*time.Second), "http://collector", "app")
	assert.False(t, fired)
	sender.AssertNotCalled(t, "Send", mock.Anything)

	now := base.Add(61 * time.Second)
	attempt, fired := e.MaybeFire(context.Background(), now, "http://collector", "app")
	require.True(t, fired)
	assert.Equal(t, delivery.StatusSent, attempt.Status)
	assert.Equal(t, now, e.lastFired)
	sender.AssertNumberOfCalls(t, "Send", 1)

	req := sender.Calls[0].Arguments.Get(0).(delivery.Request)
	assert.Equal(t, TargetName, req.Target)
	assert.Equal(t, "app", req.AppName)
	assert.Equal(t, "http://collector", req.Address)
}

func TestExporter_FailureStillAdvancesLastFired(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything).Return(delivery.StatusFailed, errors.New("connection refused"))

	e := NewExporter(time.Minute, sample, sender)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	attempt, fired := e.MaybeFire(context.Background(), now, "http://collector", "app")
	require.True(t, fired)
	assert.Equal(t, delivery.StatusFailed, attempt.Status)
	assert.Equal(t, now, e.lastFired)

	_, fired = e.MaybeFire(context.Background(), now.Add(30*time.Second), "http://collector", "app")
	assert.False(t, fired)
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestExporter_EmptySnapshotIsNotSent(t *testing.T) {
	sender := new(MockSender)
	e := NewExporter(time.Second, staticSource{}, sender)

	attempt, fired := e.MaybeFire(context.Background(), time.Now(), "http://collector", "app")
	assert.True(t, fired)
	assert.Equal(t, delivery.StatusSkipped, attempt.Status)
	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestFormat(t *testing.T) {
	now := time.Date(2026, 10, 14, 8, 30, 15, 123_000_000, time.UTC)
	out := string(Format(now, staticSource{
		{ID: 7, Name: "goroutine 7", State: "chan receive", Alive: true, Frames: []string{"a.b()", "c.d()"}},
		{ID: 8, Name: "goroutine 8", State: "select", Alive: true},
	}))

	expected := "[2026-10-14 08:30:15.123]\n" +
		"goroutine 7  [Id=7, State=chan receive, Alive=true, Daemon=false, Interrupted=false]\n" +
		"  a.b()\n" +
		"  c.d()\n" +
		"[2026-10-14 08:30:15.123]\n" +
		"goroutine 8  [Id=8, State=select, Alive=true, Daemon=false, Interrupted=false]\n"
	assert.Equal(t, expected, out)
	assert.Empty(t, Format(now, nil))
}

func TestParseStacks(t *testing.T) {
	dump := "goroutine 1 [running]:\n" +
		"main.main()\n" +
		"\t/app/main.go:10 +0x1d\n" +
		"\n" +
		"goroutine 18 [chan receive, 3 minutes]:\n" +
		"main.worker(0xc000010000)\n" +
		"\t/app/worker.go:22 +0x45\n" +
		"created by main.start in goroutine 1\n" +
		"\t/app/main.go:15 +0x6b\n"

	threads := parseStacks([]byte(dump))
	require.Len(t, threads, 2)

	assert.Equal(t, int64(1), threads[0].ID)
	assert.Equal(t, "running", threads[0].State)
	assert.Equal(t, []string{"main.main() at /app/main.go:10 +0x1d"}, threads[0].Frames)

	assert.Equal(t, "goroutine 18", threads[1].Name)
	assert.Equal(t, "chan receive, 3 minutes", threads[1].State)
	assert.True(t, threads[1].Alive)
	assert.Equal(t, []string{
		"main.worker(0xc000010000) at /app/worker.go:22 +0x45",
		"created by main.start in goroutine 1 at /app/main.go:15 +0x6b",
	}, threads[1].Frames)
}

func TestRuntimeSource_IncludesCurrentGoroutine(t *testing.T) {
	threads := RuntimeSource{}.Threads()
	require.NotEmpty(t, threads)

	found := false
	for _, th := range threads {
		for _, f := range th.Frames {
			if strings.Contains(f, "TestRuntimeSource_IncludesCurrentGoroutine") {
				found = true
			}
		}
	}
	assert.True(t, found)
}
