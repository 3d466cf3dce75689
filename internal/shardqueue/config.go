package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config groups all tunables. Values are taken from environment variables with
// the prefix "WORKLOG_SQ_". Example: WORKLOG_SQ_SHARDS=8 WORKLOG_SQ_MAX_ATTEMPTS=3 .
type Config struct {
	Shards         int           `envconfig:"SHARDS"          default:"4"`
	QueueSize      int           `envconfig:"QUEUE_SIZE"      default:"64"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"2s"`

	// ErrorHandler is called synchronously after a job gives up with an error.
	// Leave nil if you do not care.
	ErrorHandler func(error) `envconfig:"-"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"5"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"25ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"1s"`
}

// LoadConfig populates Config from environment variables (prefix WORKLOG_SQ).
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("WORKLOG_SQ", &c)
}
