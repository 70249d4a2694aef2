// Package config exposes the process environment, optionally extended by a
// .env file, as case-insensitive configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

// Configuration is a snapshot of the environment taken when it is created.
// Keys are case-insensitive: "DATABASE_URL", "database_url" and
// "Database_Url" name the same value. Variables of the process environment
// take precedence over the .env file.
type Configuration struct {
	mu sync.RWMutex
	v  *viper.Viper
}

type options struct {
	envFile  string
	explicit bool
	environ  []string
	defaults map[string]any
}

// Option configures New.
type Option func(*options)

// WithEnvFile reads path instead of ./.env. Unlike the default file, an
// explicit file must exist.
func WithEnvFile(path string) Option {
	return func(o *options) {
		o.envFile = path
		o.explicit = true
	}
}

// WithoutEnvFile disables reading a .env file.
func WithoutEnvFile() Option {
	return func(o *options) {
		o.envFile = ""
		o.explicit = false
	}
}

// WithEnviron replaces os.Environ() as the source of variables, in the same
// "KEY=value" form.
func WithEnviron(environ []string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// WithDefaults sets values used when a key is found nowhere else.
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		o.defaults = defaults
	}
}

// New loads the configuration.
func New(opts ...Option) (*Configuration, error) {
	o := &options{envFile: defaultEnvFile}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.environ == nil {
		o.environ = os.Environ()
	}

	v := viper.New()

	for key, value := range o.defaults {
		v.SetDefault(key, value)
	}

	if o.envFile != "" {
		values, err := godotenv.Read(o.envFile)
		switch {
		case err == nil:
			for key, value := range values {
				v.Set(key, value)
			}
		case o.explicit || !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read env file %s: %w", o.envFile, err)
		}
	}

	for _, env := range o.environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok || key == "" {
			continue
		}
		v.Set(key, value)
	}

	return &Configuration{v: v}, nil
}

// Get returns the value of key, or "" when it is not set.
func (c *Configuration) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(key)
}

// GetOr returns the value of key, or def when it is not set.
func (c *Configuration) GetOr(key, def string) string {
	if value, ok := c.Lookup(key); ok {
		return value
	}
	return def
}

// Lookup returns the value of key and whether it is set.
func (c *Configuration) Lookup(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.v.IsSet(key) {
		return "", false
	}
	return c.v.GetString(key), true
}

// GetInt returns the value of key as an int, or 0.
func (c *Configuration) GetInt(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt(key)
}

// GetBool returns the value of key as a bool, or false.
func (c *Configuration) GetBool(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(key)
}

// GetDuration returns the value of key as a duration, e.g. "1m30s", or 0.
func (c *Configuration) GetDuration(key string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetDuration(key)
}

// Set overrides the value of key.
func (c *Configuration) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(key, value)
}

// Keys returns every known key, lowercased.
func (c *Configuration) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.AllKeys()
}
