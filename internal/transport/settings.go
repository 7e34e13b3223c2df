package transport

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

const DefaultThreadInterval = 5 * time.Minute

// TargetFile describes one monitored file.
type TargetFile struct {
	Path          string
	Name          string
	IgnoreHistory bool
}

// NewTargetFile builds a TargetFile whose name defaults to the base name of
// path.
func NewTargetFile(path, name string, ignoreHistory bool) TargetFile {
	path = strings.TrimSpace(path)
	name = strings.TrimSpace(name)
	if name == "" && path != "" {
		name = filepath.Base(path)
	}
	return TargetFile{Path: path, Name: name, IgnoreHistory: ignoreHistory}
}

// Valid reports whether the target can be read this cycle.
func (t TargetFile) Valid() bool {
	return t.Path != "" && t.Name != "" && isRegularFile(t.Path)
}

func (t TargetFile) String() string {
	return "TargetFile{path=" + t.Path + ", name=" + t.Name + "}"
}

type ThreadLogConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Settings is handed to NewCoordinator once and never modified afterwards.
type Settings struct {
	ServerAddress string
	AppName       string
	SliceStyle    SliceStyle
	Targets       []TargetFile
	Threads       ThreadLogConfig
}

// Validate normalises the settings in place.
func (s *Settings) Validate() error {
	s.ServerAddress = strings.TrimSpace(s.ServerAddress)
	if s.Threads.Interval < 0 {
		return errors.New("thread snapshot interval must not be negative")
	}
	if s.Threads.Interval == 0 {
		s.Threads.Interval = DefaultThreadInterval
	}
	if s.Threads.Interval < time.Second {
		s.Threads.Interval = time.Second
	}
	s.Threads.Interval = s.Threads.Interval.Truncate(time.Second)
	return nil
}
