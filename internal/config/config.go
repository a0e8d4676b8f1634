package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen         = "127.0.0.1:8080"
	defaultHorizonDays    = 30
	defaultPruneSchedule  = "@every 1m"
	defaultMonitorSched   = "@every 10s"
	defaultMonitorDays    = 7
	defaultAgentURL       = "https://tickets.mos.ru/widget/api/widget/agent_info?agent_id=museum1038"
	defaultEventURL       = "https://tickets.mos.ru/widget/api/widget/getevents?event_id=65305&agent_uid=museum1038"
	defaultSessionsURL    = "https://tickets.mos.ru/widget/api/widget/events/getperformances?event_id=65305&agent_uid=museum1038"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	tempConfigFilePattern = ".padelbot-config-*.tmp"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

type LogConfig struct {
	// Level is debug, info or error.
	Level string `yaml:"level" json:"level"`
	// Format is console or json.
	Format string `yaml:"format" json:"format"`
}

// MonitorConfig describes the ticketing endpoints to watch.
type MonitorConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Schedule    string `yaml:"schedule" json:"schedule"`
	AgentURL    string `yaml:"agent_url" json:"agent_url"`
	EventURL    string `yaml:"event_url" json:"event_url"`
	SessionsURL string `yaml:"sessions_url" json:"sessions_url"`
	// Days is how many session dates, starting today, are watched.
	Days int `yaml:"days" json:"days"`
}

type NATSConfig struct {
	// URL enables event publishing when set.
	URL string `yaml:"url" json:"url"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// ChatID restricts the bot to a single chat. Empty accepts every chat.
	ChatID      string `yaml:"chat_id" json:"chat_id"`
	BotUsername string `yaml:"bot_username" json:"bot_username"`

	// HorizonDays is how far ahead listings look.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// PruneSchedule is a cron spec for removing ended visits.
	PruneSchedule string `yaml:"prune_schedule" json:"prune_schedule"`

	Log     LogConfig     `yaml:"log" json:"log"`
	Monitor MonitorConfig `yaml:"monitor" json:"monitor"`
	NATS    NATSConfig    `yaml:"nats" json:"nats"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        defaultListen,
		HorizonDays:   defaultHorizonDays,
		PruneSchedule: defaultPruneSchedule,
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Monitor: MonitorConfig{
			Enabled:     true,
			Schedule:    defaultMonitorSched,
			AgentURL:    defaultAgentURL,
			EventURL:    defaultEventURL,
			SessionsURL: defaultSessionsURL,
			Days:        defaultMonitorDays,
		},
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly. URLs are left alone: an empty URL disables that
// endpoint.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.PruneSchedule == "" {
		c.PruneSchedule = defaultPruneSchedule
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "debug", "info", "error":
	default:
		c.Log.Level = defaultLogLevel
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format != "json" {
		c.Log.Format = defaultLogFormat
	}

	if c.Monitor.Schedule == "" {
		c.Monitor.Schedule = defaultMonitorSched
	}
	if c.Monitor.Days <= 0 {
		c.Monitor.Days = defaultMonitorDays
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there with 0600
// permissions and returned. Otherwise the YAML is read and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Normalize()

	return cfg, nil
}

// Resolve is the startup path: it loads .env files into the process
// environment, loads the YAML file and then applies environment overrides.
// Overrides are never written back to the file.
func Resolve(path string, envFiles ...string) (*Config, error) {
	if err := LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given files (default ".env") without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "load env file %s", f)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables:
//
//	PADELBOT_LISTEN, PADELBOT_CHAT_ID, PADELBOT_BOT_USERNAME, NATS_URL,
//	LOG_LEVEL, CHECK_INTERVAL (seconds between monitor checks).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PADELBOT_LISTEN"); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup("PADELBOT_CHAT_ID"); ok {
		c.ChatID = v
	}
	if v, ok := lookup("PADELBOT_BOT_USERNAME"); ok {
		c.BotUsername = strings.TrimPrefix(v, "@")
	}
	if v, ok := lookup("NATS_URL"); ok {
		c.NATS.URL = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup("CHECK_INTERVAL"); ok && v != "" {
		secs, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || secs <= 0 {
			return errors.Errorf("CHECK_INTERVAL must be a positive number of seconds, got %q", v)
		}
		c.Monitor.Schedule = "@every " + strconv.Itoa(secs) + "s"
	}
	c.Normalize()
	return nil
}

// Save writes the configuration atomically via a temp file and rename,
// creating the parent directory (0700) and leaving the file at 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	tmp, err := os.CreateTemp(dir, tempConfigFilePattern)
	if err != nil {
		return errors.Wrap(err, "create temp config")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp config")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temp config")
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "replace config")
	}
	return nil
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
