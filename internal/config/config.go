package config

import (
	"time"

	"github.com/chainchat-dev/chainchat-server/internal/chain"
	"github.com/chainchat-dev/chainchat-server/internal/sink"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`

	// QueueCapacity bounds each stream subscription's queue.
	QueueCapacity int `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	// EffectTimeout bounds each side effect's round trip.
	EffectTimeout time.Duration `mapstructure:"effect_timeout" yaml:"effect_timeout"`

	Chain chain.Config    `mapstructure:"chain" yaml:"chain"`
	S3    sink.S3Config   `mapstructure:"s3" yaml:"s3"`
	IPFS  sink.IPFSConfig `mapstructure:"ipfs" yaml:"ipfs"`
}

// Default returns configuration with reasonable starter defaults. Chain and
// sink endpoints have no defaults; they must be configured.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		QueueCapacity:     1024,
		EffectTimeout:     30 * time.Second,
		IPFS: sink.IPFSConfig{
			Timeout: 30 * time.Second,
		},
	}
}
