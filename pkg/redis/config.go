package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL in the format "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// Namespace scopes keys and change notifications, playing the role of a
	// browser origin: tabs share state only within one namespace.
	Namespace     string `env:"REDIS_NAMESPACE" envDefault:"cartsync"`
	ScanBatchSize int    `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"500"`
}
