package httpx

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

type ServerOption func(*Server)

func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		if addr != "" {
			s.http.Addr = addr
		}
	}
}

// WithTimeouts bounds reading a request and writing its response. Zero
// leaves a limit unset.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.http.ReadTimeout = read
		s.http.WriteTimeout = write
	}
}

func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdown = d
		}
	}
}

func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCORS allows browser calls from the given origins; none means any.
func WithCORS(origins ...string) ServerOption {
	return func(s *Server) {
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		s.cors = origins
	}
}

type clientConfig struct {
	baseURL string
	timeout time.Duration
	headers map[string]string
	logger  *zap.Logger
}

type ClientOption func(*clientConfig)

func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithClientTimeout bounds each request, including reading the body.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.timeout = d }
}

// WithHeaders adds headers sent on every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *clientConfig) {
		if c.headers == nil {
			c.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithClientLogger routes resty's own diagnostics to logger.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *clientConfig) { c.logger = logger }
}
