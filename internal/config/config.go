// Package config holds the resolved settings for a browsing session.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	BackendAWS   = "aws"
	BackendMinio = "minio"

	OutputYAML = "yaml"
	OutputJSON = "json"

	DefaultRegion = "eu-central-1"
)

// Config is built once by the command line layer and passed explicitly to
// whatever needs it.
type Config struct {
	Backend      string
	Profile      string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool

	// S3CfgPath points at an s3cmd style ini file. Empty means search the
	// standard locations, and a missing file is not an error then.
	S3CfgPath string

	LogFile  string
	LogLevel string

	// RateLimit caps remote requests per second. Zero disables it.
	RateLimit float64
	Timeout   time.Duration

	ListOnly bool
	Output   string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Backend:  BackendAWS,
		LogLevel: "info",
		Output:   OutputYAML,
		Timeout:  30 * time.Second,
	}
}

// ApplyS3Cfg fills unset connection settings from an s3cmd file. Values
// given explicitly always win.
func (c *Config) ApplyS3Cfg(s *S3Cfg) {
	if s == nil {
		return
	}
	if c.AccessKey == "" && c.SecretKey == "" {
		c.AccessKey = s.AccessKey
		c.SecretKey = s.SecretKey
	}
	if c.Endpoint == "" && !s.IsAWS() {
		c.Endpoint = s.EndpointURL()
		c.UsePathStyle = true
	}
	if c.Region == "" {
		c.Region = s.Region
	}
}

// Finalize fills remaining defaults. Call it after every source has been
// applied.
func (c *Config) Finalize() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Backend == "" {
		c.Backend = BackendAWS
	}
	if c.Output == "" {
		c.Output = OutputYAML
	}
	c.Backend = strings.ToLower(c.Backend)
	c.Output = strings.ToLower(c.Output)
}

// Secure reports whether the endpoint should be reached over TLS.
func (c Config) Secure() bool {
	return !strings.HasPrefix(c.Endpoint, "http://")
}

// HasStaticKeys reports whether both halves of a static key pair are set.
func (c Config) HasStaticKeys() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// Validate rejects settings that cannot produce a working client.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendAWS:
	case BackendMinio:
		if c.Endpoint == "" {
			errs = append(errs, errors.New("the minio backend requires --endpoint"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (expected %s or %s)", c.Backend, BackendAWS, BackendMinio))
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, errors.New("access key and secret key must be given together"))
	}
	if c.Output != OutputYAML && c.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("unknown output format %q (expected %s or %s)", c.Output, OutputYAML, OutputJSON))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %v", c.Timeout))
	}
	return errors.Join(errs...)
}
