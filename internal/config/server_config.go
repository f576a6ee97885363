package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeout          = 10 * time.Second
	DefaultDatagramSize     = 1024
	DefaultPopulationScript = "res/data-population-script.txt"
	DefaultOperationsScript = "res/operations-script.txt"

	CodecText = "text"
	CodecRESP = "resp"
)

// TunnelConfig exposes the stream listener through an ngrok TCP endpoint.
type TunnelConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Authtoken string `yaml:"authtoken"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"-"`

	PopulationScript string        `yaml:"population_script"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	DatagramSize     int           `yaml:"datagram_size"`

	// stream only
	Codec  string       `yaml:"codec"`
	Tunnel TunnelConfig `yaml:"tunnel"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		PopulationScript: DefaultPopulationScript,
		IdleTimeout:      DefaultTimeout,
		DatagramSize:     DefaultDatagramSize,
		Codec:            CodecText,
	}
}

// LoadServerConfig reads a YAML file over the defaults. An empty path
// returns the defaults untouched.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c ServerConfig) Validate() error {
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive, got %s", c.IdleTimeout)
	}
	if c.DatagramSize <= 0 || c.DatagramSize > 65507 {
		return fmt.Errorf("datagram_size must be in 1..65507, got %d", c.DatagramSize)
	}
	switch c.Codec {
	case CodecText, CodecRESP:
	default:
		return fmt.Errorf("unknown codec %q", c.Codec)
	}
	return nil
}

func (c ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type ClientConfig struct {
	Host string `yaml:"-"`
	Port string `yaml:"-"`

	OperationsScript string        `yaml:"operations_script"`
	ResponseTimeout  time.Duration `yaml:"response_timeout"`
	DatagramSize     int           `yaml:"datagram_size"`

	// stream only
	DialAttempts   int           `yaml:"dial_attempts"`
	DialBackoffMin time.Duration `yaml:"dial_backoff_min"`
	DialBackoffMax time.Duration `yaml:"dial_backoff_max"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		OperationsScript: DefaultOperationsScript,
		ResponseTimeout:  DefaultTimeout,
		DatagramSize:     DefaultDatagramSize,
		DialAttempts:     1,
		DialBackoffMin:   100 * time.Millisecond,
		DialBackoffMax:   2 * time.Second,
	}
}

func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c ClientConfig) Validate() error {
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("response_timeout must be positive, got %s", c.ResponseTimeout)
	}
	if c.DatagramSize <= 0 || c.DatagramSize > 65507 {
		return fmt.Errorf("datagram_size must be in 1..65507, got %d", c.DatagramSize)
	}
	if c.DialAttempts < 1 {
		return fmt.Errorf("dial_attempts must be at least 1, got %d", c.DialAttempts)
	}
	if c.DialBackoffMin > c.DialBackoffMax {
		return fmt.Errorf("dial_backoff_min %s exceeds dial_backoff_max %s", c.DialBackoffMin, c.DialBackoffMax)
	}
	return nil
}

func loadYAML(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ArgumentError is a bad command line. It is fatal at startup.
type ArgumentError struct {
	Usage string
	Msg   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s (usage: %s)", e.Msg, e.Usage)
}

// ParseServerArgs validates the positional arguments of a server: the port.
func ParseServerArgs(usage string, args []string) (string, error) {
	if len(args) != 1 {
		return "", &ArgumentError{Usage: usage, Msg: fmt.Sprintf("expected 1 argument, got %d", len(args))}
	}
	if err := checkPort(usage, args[0]); err != nil {
		return "", err
	}
	return args[0], nil
}

// ParseClientArgs validates the positional arguments of a client: host and port.
func ParseClientArgs(usage string, args []string) (string, string, error) {
	if len(args) != 2 {
		return "", "", &ArgumentError{Usage: usage, Msg: fmt.Sprintf("expected 2 arguments, got %d", len(args))}
	}
	if args[0] == "" {
		return "", "", &ArgumentError{Usage: usage, Msg: "host must not be empty"}
	}
	if err := checkPort(usage, args[1]); err != nil {
		return "", "", err
	}
	return args[0], args[1], nil
}

func checkPort(usage, port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return &ArgumentError{Usage: usage, Msg: fmt.Sprintf("invalid port %q", port)}
	}
	return nil
}
