package httpdconf

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the filesystem layout of the Apache installation to parse.
type Config struct {
	// ServerRoot is the directory holding the main Apache configuration.
	ServerRoot string `env:"APACHE_SERVER_ROOT" envDefault:"/etc/apache2"`
	// VHostRoot is an optional directory of virtual host files parsed eagerly
	// at construction, in addition to the includes reachable from the entry
	// point. Empty disables the eager pass.
	VHostRoot string `env:"APACHE_VHOST_ROOT"`
	// VHostFiles is the glob matched against files under VHostRoot.
	VHostFiles string `env:"APACHE_VHOST_FILES" envDefault:"*"`
	// CtlCommand is the Apache control binary queried for runtime state.
	CtlCommand string `env:"APACHE_CTL" envDefault:"apache2ctl"`
	// LensDir overrides the Augeas lens search path. Empty uses the system
	// default.
	LensDir string `env:"APACHE_LENS_DIR"`
}

// DefaultConfig returns a Config for a stock Debian-family Apache layout.
func DefaultConfig() Config {
	return Config{
		ServerRoot: "/etc/apache2",
		VHostFiles: "*",
		CtlCommand: "apache2ctl",
	}
}

var loadDotenv sync.Once

// LoadConfig loads Config from environment variables. On first use it loads
// the .env file from the current directory if present; OS environment
// variables take precedence over .env values.
func LoadConfig() (Config, error) {
	loadDotenv.Do(func() {
		_ = godotenv.Load()
	})

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}
