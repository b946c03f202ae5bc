// Package cache provides diagnosis result cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/orphadx-io/orphadx/pkg/options"
	redisopts "github.com/orphadx-io/orphadx/pkg/options/redis"
)

var _ options.IOptions = (*Options)(nil)

// Options configures the diagnosis result cache.
type Options struct {
	// Enabled toggles the Redis-backed result cache.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL is the cached result lifetime.
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix namespaces the cache keys.
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis holds the Redis connection configuration.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions creates default cache options.
func NewOptions() *Options {
	return &Options{
		Enabled:   false,
		TTL:       1 * time.Hour,
		KeyPrefix: "diagnosis:query:",
		Redis:     redisopts.NewOptions(),
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.BoolVar(&o.Enabled, join+"cache.enabled", o.Enabled, "Enable the diagnosis result cache.")
	fs.DurationVar(&o.TTL, join+"cache.ttl", o.TTL, "Cache entry lifetime.")
	fs.StringVar(&o.KeyPrefix, join+"cache.key-prefix", o.KeyPrefix, "Cache key prefix.")

	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	o.Redis.AddFlags(fs, prefixes...)
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Enabled {
		if o.TTL <= 0 {
			errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
		}
		errs = append(errs, o.Redis.Validate()...)
	}
	return errs
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	return o.Redis.Complete()
}
