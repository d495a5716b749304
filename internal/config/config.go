// Package config resolves daemon settings from the environment and reads
// the network summary written by pi-helper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sweeney/gas-interlock/internal/status"
)

// Prefix is prepended to every daemon environment variable.
const Prefix = "GAS_INTERLOCK_"

// NetworkFile is where pi-helper writes the current network state.
const NetworkFile = "/run/pi-helper.env"

// Config holds flag defaults. Command-line flags override every field.
type Config struct {
	Poll      time.Duration `env:"POLL" envDefault:"100ms"`
	Broker    string        `env:"BROKER" envDefault:"tcp://192.168.1.200:1883"`
	Heartbeat time.Duration `env:"HEARTBEAT" envDefault:"15m"`
	HTTPAddr  string        `env:"HTTP" envDefault:":80"`
	WSBroker  string        `env:"WS_BROKER" envDefault:"=broker"`
	PinsFile  string        `env:"PINS"`
	Buffer    int           `env:"BUFFER" envDefault:"100"`
}

// Load reads an optional .env file from the working directory and then
// parses GAS_INTERLOCK_* variables over the defaults.
func Load() (Config, error) {
	// A missing .env is normal on the device.
	_ = godotenv.Load()

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Poll <= 0 {
		return Config{}, fmt.Errorf("poll interval must be positive, got %v", cfg.Poll)
	}
	return cfg, nil
}

type network struct {
	Type       string `env:"NETWORK_TYPE"`
	IP         string `env:"NETWORK_IP"`
	Status     string `env:"NETWORK_STATUS"`
	Gateway    string `env:"NETWORK_GATEWAY"`
	WifiStatus string `env:"NETWORK_WIFI_STATUS"`
	SSID       string `env:"NETWORK_WIFI_SSID"`
}

// LoadNetwork reads network info from path. If the file does not exist the
// process environment is used instead (systemd EnvironmentFile). It returns
// nil when NETWORK_STATUS is unset.
func LoadNetwork(path string) (*status.NetworkInfo, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		vars = env.ToMap(os.Environ())
	}

	var n network
	if err := env.ParseWithOptions(&n, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse network info: %w", err)
	}
	if n.Status == "" {
		return nil, nil
	}
	return &status.NetworkInfo{
		Type:       n.Type,
		IP:         n.IP,
		Status:     n.Status,
		Gateway:    n.Gateway,
		WifiStatus: n.WifiStatus,
		SSID:       n.SSID,
	}, nil
}
