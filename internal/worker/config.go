package worker

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/donkeylabs/joblink/internal/link"
	"github.com/donkeylabs/joblink/internal/util"
)

const (
	// DefaultConfigDir is the default directory where the worker's configuration is stored
	DefaultConfigDir = "/etc/joblink"
	// DefaultConfigFile is the default path to the worker's configuration file
	DefaultConfigFile = DefaultConfigDir + "/config.yaml"
)

type Config struct {
	// HeartbeatInterval is the interval between two liveness events
	HeartbeatInterval util.Duration `json:"heartbeat-interval,omitempty"`
	// ReconnectInterval is the delay between two reconnection attempts
	ReconnectInterval util.Duration `json:"reconnect-interval,omitempty"`
	// MaxReconnectAttempts caps the reconnection sequence after a transport failure
	MaxReconnectAttempts int `json:"max-reconnect-attempts,omitempty"`
	// LogLevel is the level of diagnostic logging. can be: "panic", "fatal", "error",
	// "warn"/"warning", "info", "debug" or "trace", any other will be treated as "info"
	LogLevel string `json:"log-level,omitempty"`
}

func NewDefault() *Config {
	return &Config{
		HeartbeatInterval:    util.Duration{Duration: link.DefaultHeartbeatInterval},
		ReconnectInterval:    util.Duration{Duration: link.DefaultReconnectInterval},
		MaxReconnectAttempts: link.DefaultMaxReconnectAttempts,
		LogLevel:             logrus.InfoLevel.String(),
	}
}

// ParseConfigFile reads and overlays the given yaml config file.
func (cfg *Config) ParseConfigFile(cfgFile string) error {
	contents, err := os.ReadFile(cfgFile)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return errors.Wrap(err, "unmarshalling config file")
	}
	return nil
}

// ParseConfigFileIfExists overlays the given yaml config file when it is
// present and leaves the config untouched when it is not. Workers are
// typically provisioned entirely through the handshake and environment, so
// the default config file is optional.
func (cfg *Config) ParseConfigFileIfExists(cfgFile string) error {
	if _, err := os.Stat(cfgFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "reading config file")
	}
	return cfg.ParseConfigFile(cfgFile)
}

// Validate checks that the intervals and attempt cap are usable.
func (cfg *Config) Validate() error {
	if cfg.HeartbeatInterval.Duration < time.Millisecond {
		return errors.New("heartbeat-interval must be at least 1ms")
	}
	if cfg.ReconnectInterval.Duration < time.Millisecond {
		return errors.New("reconnect-interval must be at least 1ms")
	}
	if cfg.MaxReconnectAttempts < 1 {
		return errors.New("max-reconnect-attempts must be at least 1")
	}
	return nil
}

func (cfg *Config) String() string {
	contents, err := json.Marshal(cfg)
	if err != nil {
		return "<error>"
	}
	return string(contents)
}

func (cfg *Config) linkOptions() link.Options {
	return link.Options{
		HeartbeatInterval:    cfg.HeartbeatInterval.Duration,
		ReconnectInterval:    cfg.ReconnectInterval.Duration,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	}
}
