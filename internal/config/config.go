package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"github.com/vixscript/vixpip/internal/branding"
	"github.com/vixscript/vixpip/internal/userdata"
)

const (
	fileType = "yaml"

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 60 * time.Second
)

// Setting keys accepted by Get and Set.
const (
	KeyIndexURL      = "index_url"
	KeyExtensionsDir = "extensions_dir"
	KeyTimeout       = "timeout"
	KeyRetries       = "retries"
	KeyUserAgent     = "user_agent"
)

// Keys lists every recognized setting key.
var Keys = []string{KeyIndexURL, KeyExtensionsDir, KeyTimeout, KeyRetries, KeyUserAgent}

// Settings is the resolved configuration for one invocation.
type Settings struct {
	IndexURL       string
	ExtensionsRoot string
	Timeout        time.Duration
	Retries        int
	UserAgent      string
}

// Dir returns the path to the vixpip config directory (~/.vixscript/).
func Dir() string {
	dir, err := userdata.GetHomeRoot()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return dir
}

// FilePath returns the full path to the config file (~/.vixscript/vixpip.yaml).
// VIXPIP_CONFIG overrides it.
func FilePath() string {
	if v := os.Getenv(branding.EnvVar("CONFIG")); v != "" {
		return v
	}
	return filepath.Join(Dir(), branding.CLIName()+"."+fileType)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(FilePath())
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()

	v.SetDefault(KeyIndexURL, branding.IndexURL())
	v.SetDefault(KeyExtensionsDir, "")
	v.SetDefault(KeyTimeout, DefaultTimeout.String())
	v.SetDefault(KeyRetries, 0)
	v.SetDefault(KeyUserAgent, branding.CLIName())

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading config file %s: %w", FilePath(), err)
	}
	return v, nil
}

// Load reads the config file and environment and resolves the settings.
// A missing config file is not an error.
func Load() (*Settings, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		IndexURL:  v.GetString(KeyIndexURL),
		Retries:   v.GetInt(KeyRetries),
		UserAgent: v.GetString(KeyUserAgent),
	}

	s.Timeout, err = time.ParseDuration(v.GetString(KeyTimeout))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KeyTimeout, err)
	}

	s.ExtensionsRoot = v.GetString(KeyExtensionsDir)
	if s.ExtensionsRoot == "" {
		s.ExtensionsRoot, err = userdata.GetExtensionsRoot()
		if err != nil {
			return nil, fmt.Errorf("resolving extension root: %w", err)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports settings that cannot be used.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.IndexURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q", KeyIndexURL, s.IndexURL)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("%s must not be negative", KeyTimeout)
	}
	if s.Retries < 0 {
		return fmt.Errorf("%s must not be negative", KeyRetries)
	}
	if s.ExtensionsRoot == "" {
		return fmt.Errorf("%s must not be empty", KeyExtensionsDir)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) (string, error) {
	if !slices.Contains(Keys, key) {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	v, err := newViper()
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	switch key {
	case KeyTimeout:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
	case KeyRetries:
		if n, err := strconv.Atoi(value); err != nil || n < 0 {
			return fmt.Errorf("invalid retry count %q", value)
		}
	}

	v, err := newViper()
	if err != nil {
		return err
	}
	v.Set(key, value)

	configFile := FilePath()
	if err := userdata.EnsureDir(filepath.Dir(configFile)); err != nil {
		return err
	}
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
