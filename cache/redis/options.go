package redis

import (
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultAddr      = "127.0.0.1:6379"
	defaultNamespace = "sentiscope:"
	defaultScanCount = 100
)

// Options selects the server and key space of a Store. Zero fields take
// defaults.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Namespace prefixes every key, so one database can host several
	// deployments.
	Namespace string
	// ScanCount is the COUNT hint for SCAN during ClearCache.
	ScanCount int64
	// Timeout bounds dialing and each command.
	Timeout time.Duration
}

func (o Options) normalized() Options {
	if o.Addr == "" {
		o.Addr = defaultAddr
	}
	if o.Namespace == "" {
		o.Namespace = defaultNamespace
	}
	if o.ScanCount <= 0 {
		o.ScanCount = defaultScanCount
	}
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Second
	}
	return o
}

func (o Options) client() *goredis.Options {
	return &goredis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.Timeout,
		ReadTimeout:  o.Timeout,
		WriteTimeout: o.Timeout,
	}
}
