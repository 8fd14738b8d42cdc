package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/printq/pkg/admin"
	"github.com/cuemby/printq/pkg/ipp"
	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/reconciler"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is
// not given. A missing default file is not an error.
const DefaultPath = "/etc/printq/printq.yaml"

// Tools holds the paths of the CUPS command-line tools
type Tools struct {
	IPPTool     string `yaml:"ipptool"`
	LPAdmin     string `yaml:"lpadmin"`
	LPOptions   string `yaml:"lpoptions"`
	CupsAccept  string `yaml:"cupsaccept"`
	CupsReject  string `yaml:"cupsreject"`
	CupsEnable  string `yaml:"cupsenable"`
	CupsDisable string `yaml:"cupsdisable"`
}

// Config is the printq configuration
type Config struct {
	Tools        Tools         `yaml:"tools"`
	Server       string        `yaml:"server"`
	RootIdentity string        `yaml:"root_identity"`
	DataDir      string        `yaml:"data_dir"`
	LogLevel     string        `yaml:"log_level"`
	JSONLogs     bool          `yaml:"json_logs"`
	Interval     time.Duration `yaml:"interval"`
	MetricsAddr  string        `yaml:"metrics_addr"`
	KeepReports  int           `yaml:"keep_reports"`
}

// Default returns the built-in configuration
func Default() *Config {
	tools := admin.DefaultTools()
	return &Config{
		Tools: Tools{
			IPPTool:     ipp.DefaultTool,
			LPAdmin:     tools.LPAdmin,
			LPOptions:   tools.LPOptions,
			CupsAccept:  tools.CupsAccept,
			CupsReject:  tools.CupsReject,
			CupsEnable:  tools.CupsEnable,
			CupsDisable: tools.CupsDisable,
		},
		Server:       ipp.DefaultServer,
		RootIdentity: reconciler.DefaultRootIdentity,
		DataDir:      "/var/lib/printq",
		LogLevel:     string(log.InfoLevel),
		Interval:     30 * time.Minute,
		MetricsAddr:  "127.0.0.1:9631",
		KeepReports:  100,
	}
}

// Load reads a YAML file over the defaults. When path is DefaultPath and
// the file does not exist, the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server must not be empty")
	}
	if !validServer(c.Server) {
		return fmt.Errorf("server %q is not host[:port]", c.Server)
	}
	if c.RootIdentity == "" {
		return fmt.Errorf("root_identity must not be empty")
	}
	if c.DataDir == "" || !filepath.IsAbs(c.DataDir) {
		return fmt.Errorf("data_dir %q must be an absolute path", c.DataDir)
	}
	if c.Interval < time.Minute {
		return fmt.Errorf("interval %s is shorter than one minute", c.Interval)
	}
	if c.KeepReports < 0 {
		return fmt.Errorf("keep_reports must not be negative")
	}
	switch log.Level(c.LogLevel) {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	for name, path := range map[string]string{
		"ipptool":     c.Tools.IPPTool,
		"lpadmin":     c.Tools.LPAdmin,
		"lpoptions":   c.Tools.LPOptions,
		"cupsaccept":  c.Tools.CupsAccept,
		"cupsreject":  c.Tools.CupsReject,
		"cupsenable":  c.Tools.CupsEnable,
		"cupsdisable": c.Tools.CupsDisable,
	} {
		if path == "" {
			return fmt.Errorf("tools.%s must not be empty", name)
		}
	}
	return nil
}

func validServer(s string) bool {
	host := s
	if strings.Contains(s, ":") {
		h, port, err := net.SplitHostPort(s)
		if err != nil {
			return false
		}
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return false
		}
		host = h
	}
	return host != "" && !strings.ContainsAny(host, "/ ")
}

// IPPOptions returns the query client options
func (c *Config) IPPOptions() ipp.Options {
	return ipp.Options{Tool: c.Tools.IPPTool, Server: c.Server}
}

// AdminTools returns the administration tool paths
func (c *Config) AdminTools() admin.Tools {
	return admin.Tools{
		LPAdmin:     c.Tools.LPAdmin,
		LPOptions:   c.Tools.LPOptions,
		CupsAccept:  c.Tools.CupsAccept,
		CupsReject:  c.Tools.CupsReject,
		CupsEnable:  c.Tools.CupsEnable,
		CupsDisable: c.Tools.CupsDisable,
	}
}

// ReconcilerOptions returns the reconciler options
func (c *Config) ReconcilerOptions() reconciler.Options {
	return reconciler.Options{RootIdentity: c.RootIdentity}
}
