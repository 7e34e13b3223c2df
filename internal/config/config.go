package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/MuchTitan/go-log-transport/internal/logging"
	"github.com/MuchTitan/go-log-transport/internal/threads"
	"github.com/MuchTitan/go-log-transport/internal/transport"
	"github.com/sirupsen/logrus"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSchedule         = "@every 10s"
	DefaultHistorySchedule  = "@every 1m"
	DefaultHistoryRetention = 3
)

// Config represents the complete configuration
type Config struct {
	System    SystemConfig    `yaml:"System"`
	Transport TransportConfig `yaml:"Transport"`
}

// SystemConfig holds settings of the agent itself
type SystemConfig struct {
	LogLevel             string `yaml:"logLevel"`
	LogFile              string `yaml:"logFile"`
	LogMaxSizeMB         int    `yaml:"logMaxSizeMB"`
	LogMaxBackups        int    `yaml:"logMaxBackups"`
	LogMaxAgeDays        int    `yaml:"logMaxAgeDays"`
	LogCompress          bool   `yaml:"logCompress"`
	GelfAddr             string `yaml:"gelfAddr"`
	GelfMode             string `yaml:"gelfMode"`
	GelfHost             string `yaml:"gelfHost"`
	HistoryFile          string `yaml:"historyFile"`
	HistorySchedule      string `yaml:"historySchedule"`
	HistoryRetentionDays int    `yaml:"historyRetentionDays"`
	MetricsListen        string `yaml:"metricsListen"`
}

// TransportConfig describes what is shipped where
type TransportConfig struct {
	Server      string            `yaml:"server"`
	AppName     string            `yaml:"appName"`
	Schedule    string            `yaml:"schedule"`
	SliceStyle  string            `yaml:"sliceStyle"`
	TargetFiles string            `yaml:"targetFiles"`
	ThreadInfos ThreadInfosConfig `yaml:"threadInfos"`
}

type ThreadInfosConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Duration string `yaml:"duration"`
}

func (c *SystemConfig) GetLogLevel() logrus.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "TRACE":
		return logrus.TraceLevel
	case "DEBUG":
		return logrus.DebugLevel
	case "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		// Default LogLevel Info
		return logrus.InfoLevel
	}
}

func (c *SystemConfig) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.GetLogLevel(),
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
		Compress:   c.LogCompress,
		GELFAddr:   c.GelfAddr,
		GELFMode:   strings.ToLower(c.GelfMode),
		GELFHost:   c.GelfHost,
	}
}

// Load reads the YAML file at path, expanding environment variables first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	// Replace environment variables
	expandedData := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Transport.Schedule == "" {
		cfg.Transport.Schedule = DefaultSchedule
	}
	if cfg.System.HistorySchedule == "" {
		cfg.System.HistorySchedule = DefaultHistorySchedule
	}
	if cfg.System.HistoryRetentionDays <= 0 {
		cfg.System.HistoryRetentionDays = DefaultHistoryRetention
	}
	return cfg, nil
}

// Settings converts the transport section into coordinator settings.
func (c *Config) Settings() transport.Settings {
	t := c.Transport
	return transport.Settings{
		ServerAddress: strings.TrimSpace(t.Server),
		AppName:       t.AppName,
		SliceStyle:    transport.ParseSliceStyle(t.SliceStyle),
		Targets:       ParseTargetFiles(t.TargetFiles),
		Threads: transport.ThreadLogConfig{
			Enabled:  t.ThreadInfos.Enabled,
			Interval: threads.ParseInterval(t.ThreadInfos.Duration),
		},
	}
}
