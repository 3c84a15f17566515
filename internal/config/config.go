package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/abgdnv/shopfront/pkg/config"
	"github.com/abgdnv/shopfront/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

const (
	DefaultResourceURL = "https://httpbin.org/delay/2?query=abcd"
	DefaultFeedURL     = "https://jsonplaceholder.typicode.com/posts"
	DefaultPageSize    = 5
)

// UpstreamConfig names the external services sessions read from.
type UpstreamConfig struct {
	ResourceURL    string                      `koanf:"resourceurl"`
	FeedURL        string                      `koanf:"feedurl"`
	PageSize       int                         `koanf:"pagesize"`
	CircuitBreaker config.CircuitBreakerConfig `koanf:"circuitbreaker"`
}

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Upstream   UpstreamConfig          `koanf:"upstream"`
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.NATS.String())

	b.WriteString("\n--- Upstream ---\n")
	b.WriteString(fmt.Sprintf("  resourceurl: %s\n", c.Upstream.ResourceURL))
	b.WriteString(fmt.Sprintf("  feedurl: %s\n", c.Upstream.FeedURL))
	b.WriteString(fmt.Sprintf("  pagesize: %d\n", c.Upstream.PageSize))
	b.WriteString(c.Upstream.CircuitBreaker.String())

	return b.String()
}

// Validate checks if the configuration values are valid.
// Missing upstream values fall back to the demo endpoints.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.GRPC.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	return c.Upstream.Validate()
}

func (c *UpstreamConfig) Validate() error {
	if c.ResourceURL == "" {
		c.ResourceURL = DefaultResourceURL
	}
	if c.FeedURL == "" {
		c.FeedURL = DefaultFeedURL
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize < 0 {
		return fmt.Errorf("upstream page size must be positive: %d", c.PageSize)
	}
	for _, raw := range []string{c.ResourceURL, c.FeedURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid upstream URL: %q", raw)
		}
	}
	return c.CircuitBreaker.Validate()
}
