// Package config wires process configuration: pflag-based flags with an
// optional YAML file providing defaults, flags always winning over the
// file for anything explicitly set on the command line.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds everything main needs to stand up the server. CLI argument
// *catalogs* (subcommands, help text) are out of scope per spec.md; this
// is just the handful of values a runnable binary needs.
type Config struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	TCPAddr  string `yaml:"tcp_addr"`
	UDPAddr  string `yaml:"udp_addr"`
	WSAddr   string `yaml:"ws_addr"`
	UnixPath string `yaml:"unix_path"`
	LogLevel string `yaml:"log_level"`
	Fast     bool   `yaml:"fast"`
}

// Default mirrors the 800x600 canvas spec §8's end-to-end scenarios assume.
func Default() Config {
	return Config{
		Width:    800,
		Height:   600,
		TCPAddr:  ":1337",
		UDPAddr:  ":1337",
		WSAddr:   ":1338",
		UnixPath: "",
		LogLevel: "info",
		Fast:     false,
	}
}

// Parse builds a Config from a YAML file (if -config names one) overlaid
// with any flags the caller actually set, using fs so callers (and tests)
// control the flag set and argv independently of the process's real os.Args.
func Parse(fs *pflag.FlagSet, args []string) (Config, error) {
	cfg := Default()

	configPath := fs.String("config", "", "optional YAML config file")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "canvas width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "canvas height")
	fs.StringVar(&cfg.TCPAddr, "tcp", cfg.TCPAddr, "TCP listen address")
	fs.StringVar(&cfg.UDPAddr, "udp", cfg.UDPAddr, "UDP listen address")
	fs.StringVar(&cfg.WSAddr, "ws", cfg.WSAddr, "WebSocket listen address")
	fs.StringVar(&cfg.UnixPath, "unix", cfg.UnixPath, "Unix domain socket path (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "zerolog level name")
	fs.BoolVar(&cfg.Fast, "fast", cfg.Fast, "route TCP/Unix traffic through the byte-trick SetPixel-only fast path instead of the full request/response loop")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		fileCfg, err := loadFile(*configPath)
		if err != nil {
			return Config{}, err
		}
		applyFileDefaults(&cfg, fileCfg, fs)
	}

	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// applyFileDefaults fills in any field the caller didn't pass a flag for
// with the file's value, so "flags win" without re-declaring each field.
func applyFileDefaults(cfg *Config, file Config, fs *pflag.FlagSet) {
	if !fs.Changed("width") && file.Width != 0 {
		cfg.Width = file.Width
	}
	if !fs.Changed("height") && file.Height != 0 {
		cfg.Height = file.Height
	}
	if !fs.Changed("tcp") && file.TCPAddr != "" {
		cfg.TCPAddr = file.TCPAddr
	}
	if !fs.Changed("udp") && file.UDPAddr != "" {
		cfg.UDPAddr = file.UDPAddr
	}
	if !fs.Changed("ws") && file.WSAddr != "" {
		cfg.WSAddr = file.WSAddr
	}
	if !fs.Changed("unix") && file.UnixPath != "" {
		cfg.UnixPath = file.UnixPath
	}
	if !fs.Changed("log-level") && file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if !fs.Changed("fast") && file.Fast {
		cfg.Fast = file.Fast
	}
}
