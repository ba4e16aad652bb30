package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const (
	defaultPath  = "config.yaml"
	pathEnvVar   = "FOCUSWATCH_CONFIG"
	DefaultLevel = "info"
)

type Config struct {
	Log         Log         `yaml:"log"`
	HTTP        HTTP        `yaml:"http"`
	MCP         MCP         `yaml:"mcp"`
	Poll        Poll        `yaml:"poll"`
	Sources     Sources     `yaml:"sources"`
	Chat        Chat        `yaml:"chat"`
	Calibration Calibration `yaml:"calibration"`
}

type HTTP struct {
	// Listen address of the dashboard
	Addr string `yaml:"addr" example:"127.0.0.1:8090" validate:"required"`
}

type MCP struct {
	// Listen address of the MCP server, empty disables it
	Addr string `yaml:"addr" example:"127.0.0.1:8091"`
}

type Poll struct {
	// Period between two poll ticks
	Interval time.Duration `yaml:"interval" example:"1s" validate:"gt=0"`
	// Timeout of a single request to a source
	RequestTimeout time.Duration `yaml:"request_timeout" example:"3s" validate:"gt=0"`
	// Number of samples kept per chart
	HistorySize int `yaml:"history_size" example:"30" validate:"gt=0"`
}

type Sources struct {
	// Eye-tracking service
	Attention string `yaml:"attention" example:"http://127.0.0.1:8001" validate:"required,url"`
	// Voice analysis and voice control service
	Voice string `yaml:"voice" example:"http://127.0.0.1:5002" validate:"required,url"`
	// Keyboard/mouse activity service
	Activity string `yaml:"activity" example:"http://localhost:5001" validate:"required,url"`
	// AI agent service
	Agent string `yaml:"agent" example:"http://localhost:8005" validate:"required,url"`
}

type Chat struct {
	// Timeout of a question sent to the agent
	AskTimeout time.Duration `yaml:"ask_timeout" example:"60s" validate:"gt=0"`
}

type Calibration struct {
	// Countdown seconds before calibration starts
	Countdown int `yaml:"countdown" example:"5" validate:"gte=0"`
	// Give up if no terminal status arrives within this duration
	Timeout time.Duration `yaml:"timeout" example:"10s" validate:"gt=0"`
	// Period of calibration status checks
	StatusInterval time.Duration `yaml:"status_interval" example:"1s" validate:"gt=0"`
}

type Log struct {
	// Minimal level: debug, info, warn or error
	Level string `yaml:"level" example:"info" validate:"omitempty,oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Default() *Config {
	result := Config{Calibration: Calibration{Countdown: 5}}
	result.applyDefaults()
	return &result
}

func Load() (*Config, error) {
	path := os.Getenv(pathEnvVar)
	if path == "" {
		path = defaultPath
	}

	return LoadFile(path)
}

// LoadFile reads the YAML file at path over the defaults, so only keys
// present in the file replace them. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	result := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, oops.In("config").With("path", path).Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, result); err != nil {
			return nil, oops.In("config").With("path", path).Errorf("failed to parse YAML config: %w", err)
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.In("config").Errorf("failed to validate config: %w", err)
	}

	return result, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLevel
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:8090"
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = time.Second
	}
	if c.Poll.RequestTimeout == 0 {
		c.Poll.RequestTimeout = 3 * time.Second
	}
	if c.Poll.HistorySize == 0 {
		c.Poll.HistorySize = 30
	}
	if c.Sources.Attention == "" {
		c.Sources.Attention = "http://127.0.0.1:8001"
	}
	if c.Sources.Voice == "" {
		c.Sources.Voice = "http://127.0.0.1:5002"
	}
	if c.Sources.Activity == "" {
		c.Sources.Activity = "http://localhost:5001"
	}
	if c.Sources.Agent == "" {
		c.Sources.Agent = "http://localhost:8005"
	}
	if c.Chat.AskTimeout == 0 {
		c.Chat.AskTimeout = time.Minute
	}
	if c.Calibration.Timeout == 0 {
		c.Calibration.Timeout = 10 * time.Second
	}
	if c.Calibration.StatusInterval == 0 {
		c.Calibration.StatusInterval = time.Second
	}
}
