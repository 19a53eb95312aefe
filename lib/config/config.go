// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "KEEPER_CONFIG"

// Console modes.
const (
	ConsoleRCON = "rcon"
	ConsoleTmux = "tmux"
)

// Launch modes.
const (
	LaunchExec = "exec"
	LaunchTmux = "tmux"
)

// Config is the master configuration for keeper.
type Config struct {
	// Server identifies the game server process and its log.
	Server ServerConfig `yaml:"server"`

	// RCON configures the remote console connection.
	RCON RCONConfig `yaml:"rcon"`

	// Console selects how the supervisor delivers the stop command.
	Console ConsoleConfig `yaml:"console"`

	// Launch configures how the supervisor starts the server.
	Launch LaunchConfig `yaml:"launch"`

	// Health configures the health checks.
	Health HealthConfig `yaml:"health"`

	// Supervisor configures the restart policy.
	Supervisor SupervisorConfig `yaml:"supervisor"`

	// Metrics configures the HTTP endpoint for metrics and probes.
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig identifies the game server.
type ServerConfig struct {
	// Signature is a substring of the server's command line, used to
	// find its processes. Example: "-jar paper.jar".
	Signature string `yaml:"signature"`

	// LogPath is the server log whose modification time signals
	// activity. Example: /srv/minecraft/logs/latest.log
	LogPath string `yaml:"log_path"`

	// Host and GamePort locate the game port for TCP probing.
	Host     string `yaml:"host"`
	GamePort int    `yaml:"game_port"`
}

// GameAddress returns Host:GamePort.
func (s ServerConfig) GameAddress() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.GamePort))
}

// RCONConfig configures the remote console.
type RCONConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Password is the RCON password. Prefer ${VAR} expansion or
	// PasswordFile over a literal value.
	Password string `yaml:"password"`

	// PasswordFile is read when Password is empty. Surrounding
	// whitespace is trimmed.
	PasswordFile string `yaml:"password_file"`

	// Timeout bounds each dial, write, and read.
	Timeout time.Duration `yaml:"timeout"`
}

// Address returns Host:Port.
func (r RCONConfig) Address() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// ResolvePassword returns Password, or the contents of PasswordFile
// when Password is empty. An empty result with a nil error means no
// password is configured.
func (r RCONConfig) ResolvePassword() (string, error) {
	if r.Password != "" {
		return r.Password, nil
	}
	if r.PasswordFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(r.PasswordFile)
	if err != nil {
		return "", fmt.Errorf("reading rcon.password_file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ConsoleConfig selects the command channel for the stop command.
type ConsoleConfig struct {
	// Mode is "rcon" (default) or "tmux".
	Mode string `yaml:"mode"`

	// TmuxSocket is the tmux server socket. Empty targets the user's
	// default tmux server.
	TmuxSocket string `yaml:"tmux_socket"`

	// Session is the tmux session running the server console.
	Session string `yaml:"session"`
}

// LaunchConfig configures the start procedure.
type LaunchConfig struct {
	// Mode is "exec" (run Command and wait for it) or "tmux" (run
	// Command inside a new detached tmux session).
	Mode string `yaml:"mode"`

	// Command is the argv to run. Example: [systemctl, start, minecraft]
	Command []string `yaml:"command"`

	// Timeout bounds an exec launch.
	Timeout time.Duration `yaml:"timeout"`

	TmuxSocket string `yaml:"tmux_socket"`
	Session    string `yaml:"session"`
}

// HealthConfig configures the health checks.
type HealthConfig struct {
	// PortProbe enables the TCP probe of the game port.
	PortProbe bool `yaml:"port_probe"`

	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// StaleThreshold is how old the log may be before it counts as
	// stale.
	StaleThreshold time.Duration `yaml:"stale_threshold"`

	// StaleLogPolicy is "permissive" (a stale log alone is healthy)
	// or "strict" (a stale log alone is unhealthy). Only consulted
	// when PortProbe is off.
	StaleLogPolicy string `yaml:"stale_log_policy"`

	// ScanTimeout bounds one process-table scan.
	ScanTimeout time.Duration `yaml:"scan_timeout"`
}

// SupervisorConfig configures the restart policy.
type SupervisorConfig struct {
	PollInterval       time.Duration `yaml:"poll_interval"`
	MinRestartInterval time.Duration `yaml:"min_restart_interval"`
	MaxAttempts        int           `yaml:"max_attempts"`
	StartupGrace       time.Duration `yaml:"startup_grace"`
	ConfirmInterval    time.Duration `yaml:"confirm_interval"`
	Cooldown           time.Duration `yaml:"cooldown"`
	ExhaustedPenalty   time.Duration `yaml:"exhausted_penalty"`
	DrainTimeout       time.Duration `yaml:"drain_timeout"`
	CommandTimeout     time.Duration `yaml:"command_timeout"`

	// StateFile receives the status snapshot after every poll. Empty
	// disables the snapshot.
	StateFile string `yaml:"state_file"`
}

// MetricsConfig configures the metrics and probe endpoint.
type MetricsConfig struct {
	// Listen is the address for /metrics, /live, and /ready. Empty
	// disables the endpoint.
	Listen string `yaml:"listen"`
}

// Default returns the default configuration. These are the values a
// config file overrides; Server.Signature and Server.LogPath have no
// sensible default and are left empty.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			GamePort: 25565,
		},
		RCON: RCONConfig{
			Host:    "127.0.0.1",
			Port:    25575,
			Timeout: 5 * time.Second,
		},
		Console: ConsoleConfig{
			Mode:    ConsoleRCON,
			Session: "minecraft",
		},
		Launch: LaunchConfig{
			Mode:    LaunchExec,
			Timeout: time.Minute,
			Session: "minecraft",
		},
		Health: HealthConfig{
			PortProbe:      true,
			ProbeTimeout:   2 * time.Second,
			StaleThreshold: 5 * time.Minute,
			StaleLogPolicy: "permissive",
			ScanTimeout:    5 * time.Second,
		},
		Supervisor: SupervisorConfig{
			PollInterval:       30 * time.Second,
			MinRestartInterval: 5 * time.Minute,
			MaxAttempts:        3,
			StartupGrace:       3 * time.Minute,
			ConfirmInterval:    5 * time.Second,
			Cooldown:           30 * time.Minute,
			ExhaustedPenalty:   6 * time.Hour,
			DrainTimeout:       time.Minute,
			CommandTimeout:     10 * time.Second,
			StateFile:          "${HOME}/.local/state/keeper/status.cbor",
		},
	}
}

// Load loads configuration from the file named by KEEPER_CONFIG. There
// is no fallback: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your keeper.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path on top of
// Default, then expands variables. It does not validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.expandVariables()

	return cfg, nil
}

// loadFile decodes a single configuration file into the current
// config. Unknown keys are errors: a misspelled duration silently
// falling back to its default would change restart behavior.
func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path,
// command, and secret fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Server.LogPath = expandVars(c.Server.LogPath, vars)
	c.RCON.Password = expandVars(c.RCON.Password, vars)
	c.RCON.PasswordFile = expandVars(c.RCON.PasswordFile, vars)
	c.Console.TmuxSocket = expandVars(c.Console.TmuxSocket, vars)
	c.Launch.TmuxSocket = expandVars(c.Launch.TmuxSocket, vars)
	for i, argument := range c.Launch.Command {
		c.Launch.Command[i] = expandVars(argument, vars)
	}
	c.Supervisor.StateFile = expandVars(c.Supervisor.StateFile, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for values that are malformed or
// that contradict each other. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if !validPort(c.Server.GamePort) {
		errs = append(errs, fmt.Errorf("server.game_port %d is out of range", c.Server.GamePort))
	}
	if !validPort(c.RCON.Port) {
		errs = append(errs, fmt.Errorf("rcon.port %d is out of range", c.RCON.Port))
	}
	if c.RCON.Password != "" && c.RCON.PasswordFile != "" {
		errs = append(errs, errors.New("rcon.password and rcon.password_file are mutually exclusive"))
	}

	consoleModes := []string{ConsoleRCON, ConsoleTmux}
	if !contains(consoleModes, c.Console.Mode) {
		errs = append(errs, fmt.Errorf("console.mode must be one of: %v", consoleModes))
	}
	if c.Console.Mode == ConsoleRCON && c.RCON.Password == "" && c.RCON.PasswordFile == "" {
		errs = append(errs, errors.New("console.mode rcon requires rcon.password or rcon.password_file"))
	}
	if c.Console.Mode == ConsoleTmux && c.Console.Session == "" {
		errs = append(errs, errors.New("console.mode tmux requires console.session"))
	}

	launchModes := []string{LaunchExec, LaunchTmux}
	if !contains(launchModes, c.Launch.Mode) {
		errs = append(errs, fmt.Errorf("launch.mode must be one of: %v", launchModes))
	}
	if c.Launch.Mode == LaunchTmux && c.Launch.Session == "" {
		errs = append(errs, errors.New("launch.mode tmux requires launch.session"))
	}

	policies := []string{"permissive", "strict"}
	if !contains(policies, c.Health.StaleLogPolicy) {
		errs = append(errs, fmt.Errorf("health.stale_log_policy must be one of: %v", policies))
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"rcon.timeout", c.RCON.Timeout},
		{"launch.timeout", c.Launch.Timeout},
		{"health.probe_timeout", c.Health.ProbeTimeout},
		{"health.stale_threshold", c.Health.StaleThreshold},
		{"health.scan_timeout", c.Health.ScanTimeout},
		{"supervisor.poll_interval", c.Supervisor.PollInterval},
		{"supervisor.startup_grace", c.Supervisor.StartupGrace},
		{"supervisor.confirm_interval", c.Supervisor.ConfirmInterval},
		{"supervisor.cooldown", c.Supervisor.Cooldown},
		{"supervisor.exhausted_penalty", c.Supervisor.ExhaustedPenalty},
		{"supervisor.drain_timeout", c.Supervisor.DrainTimeout},
		{"supervisor.command_timeout", c.Supervisor.CommandTimeout},
	}
	for _, field := range positive {
		if field.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", field.name, field.value))
		}
	}
	if c.Supervisor.MinRestartInterval < 0 {
		errs = append(errs, fmt.Errorf("supervisor.min_restart_interval must not be negative, got %v", c.Supervisor.MinRestartInterval))
	}
	if c.Supervisor.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("supervisor.max_attempts must be at least 1, got %d", c.Supervisor.MaxAttempts))
	}
	if c.Supervisor.ExhaustedPenalty <= c.Supervisor.Cooldown {
		errs = append(errs, fmt.Errorf("supervisor.exhausted_penalty (%v) must be longer than supervisor.cooldown (%v)",
			c.Supervisor.ExhaustedPenalty, c.Supervisor.Cooldown))
	}
	if c.Supervisor.ConfirmInterval > c.Supervisor.StartupGrace {
		errs = append(errs, fmt.Errorf("supervisor.confirm_interval (%v) must not exceed supervisor.startup_grace (%v)",
			c.Supervisor.ConfirmInterval, c.Supervisor.StartupGrace))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateMonitoring checks the fields the health monitor and the
// supervisor need on top of Validate.
func (c *Config) ValidateMonitoring() error {
	var errs []error
	if strings.TrimSpace(c.Server.Signature) == "" {
		errs = append(errs, errors.New("server.signature is required"))
	}
	if c.Server.LogPath == "" {
		errs = append(errs, errors.New("server.log_path is required"))
	}
	return errors.Join(errs...)
}

// ValidateLaunch checks the fields the start procedure needs.
func (c *Config) ValidateLaunch() error {
	if len(c.Launch.Command) == 0 {
		return errors.New("launch.command is required")
	}
	return nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
