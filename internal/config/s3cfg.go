package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const awsHostBase = "s3.amazonaws.com"

// ErrS3CfgNotFound is returned when no s3cmd file exists in any standard
// location.
var ErrS3CfgNotFound = errors.New(".s3cfg file not found in any of the standard locations")

// S3Cfg holds the connection settings parsed from an s3cmd .s3cfg file.
type S3Cfg struct {
	AccessKey string
	SecretKey string
	HostBase  string
	UseHTTPS  bool
	Region    string
}

// S3CfgPaths lists the locations searched for an s3cmd file, in order.
func S3CfgPaths() []string {
	paths := []string{".s3cfg"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".s3cfg"))
	}
	return append(paths, "/etc/s3cfg")
}

// FindS3Cfg loads the first s3cmd file found in the standard locations.
func FindS3Cfg() (*S3Cfg, error) {
	for _, path := range S3CfgPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadS3Cfg(path)
		}
	}
	return nil, ErrS3CfgNotFound
}

// LoadS3Cfg parses the [default] section of an s3cmd file.
func LoadS3Cfg(path string) (*S3Cfg, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	section := file.Section("default")
	cfg := &S3Cfg{
		AccessKey: section.Key("access_key").String(),
		SecretKey: section.Key("secret_key").String(),
		HostBase:  section.Key("host_base").MustString(awsHostBase),
		UseHTTPS:  section.Key("use_https").MustBool(true),
		Region:    section.Key("bucket_location").String(),
	}

	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("access_key and secret_key must be specified in %s", path)
	}
	// s3cmd writes the legacy location name for us-east-1.
	if strings.EqualFold(cfg.Region, "US") {
		cfg.Region = "us-east-1"
	}
	return cfg, nil
}

// IsAWS reports whether the file points at AWS itself rather than an
// S3-compatible server.
func (c *S3Cfg) IsAWS() bool {
	host := strings.TrimSuffix(c.HostBase, "/")
	return host == awsHostBase || strings.HasSuffix(host, ".amazonaws.com")
}

// EndpointURL returns the endpoint with its scheme.
func (c *S3Cfg) EndpointURL() string {
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}
