package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const configDir = ".chatterm"
const configFile = "config.json"

const (
	DefaultEndpoint         = "http://127.0.0.1:5000/chat"
	DefaultRevealIntervalMS = 10
	DefaultAnswerDelayMS    = 20
	DefaultTimeoutSeconds   = 300
)

// Targeting modes for reveal updates.
const (
	TargetingRecord = "record"
	TargetingRole   = "role"
)

type Config struct {
	Endpoint         string `json:"endpoint"`
	RevealIntervalMS int    `json:"reveal_interval_ms,omitempty"`
	AnswerDelayMS    int    `json:"answer_delay_ms"`
	TimeoutSeconds   int    `json:"timeout_seconds,omitempty"`
	Targeting        string `json:"targeting,omitempty"`
	LogFile          string `json:"log_file,omitempty"`
	Profile          string `json:"-"`
}

// Default returns a config with every field at its default.
func Default(profile string) *Config {
	return &Config{
		Endpoint:         DefaultEndpoint,
		RevealIntervalMS: DefaultRevealIntervalMS,
		AnswerDelayMS:    DefaultAnswerDelayMS,
		TimeoutSeconds:   DefaultTimeoutSeconds,
		Targeting:        TargetingRecord,
		Profile:          profile,
	}
}

func configPath(profile string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.json", profile)
	}
	return filepath.Join(home, configDir, filename), nil
}

// Dir returns the directory holding config files.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

func Load(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(profile), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default(profile)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Profile = profile
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.RevealIntervalMS <= 0 {
		c.RevealIntervalMS = DefaultRevealIntervalMS
	}
	if c.AnswerDelayMS < 0 {
		c.AnswerDelayMS = DefaultAnswerDelayMS
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Targeting == "" {
		c.Targeting = TargetingRecord
	}
}

func (c *Config) Save() error {
	path, err := configPath(c.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

func (c *Config) Validate() error {
	pf := c.profileFlag()
	if c.Endpoint == "" {
		return fmt.Errorf("no chat endpoint. Run: chatterm%s set endpoint <url>", pf)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid chat endpoint %q. Run: chatterm%s set endpoint <url>", c.Endpoint, pf)
	}
	switch c.Targeting {
	case "", TargetingRecord, TargetingRole:
	default:
		return fmt.Errorf("unknown targeting %q (want %q or %q)", c.Targeting, TargetingRecord, TargetingRole)
	}
	return nil
}

func (c *Config) RevealInterval() time.Duration {
	if c.RevealIntervalMS <= 0 {
		return DefaultRevealIntervalMS * time.Millisecond
	}
	return time.Duration(c.RevealIntervalMS) * time.Millisecond
}

func (c *Config) AnswerDelay() time.Duration {
	if c.AnswerDelayMS < 0 {
		return DefaultAnswerDelayMS * time.Millisecond
	}
	return time.Duration(c.AnswerDelayMS) * time.Millisecond
}

func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func ListProfiles() ([]string, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".json") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".json"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
