// Package config centralizes ingestion configuration. Values come from three
// layers, later layers overriding earlier ones:
//
//  1. an optional YAML file (-config path, or INGEST_CONFIG),
//  2. environment variables (MYSQL_HOST, DB_DRIVER, BATCH_SIZE, ...),
//  3. command-line flags.
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg, err := config.LoadFromArgs(fs, getenv, []string{"-batch_size=50"})
package config

import (
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDriver    = "mysql"
	DefaultBatchSize = 1000
	DefaultReadAhead = 2
	DefaultJob       = "ingest"
)

// Config holds all process configuration. It is a plain value and safe to
// copy after construction.
type Config struct {
	// DB connectivity. DSN, when set, wins over the discrete parts.
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	// BatchSize is the number of rows per committed insert batch.
	BatchSize int `yaml:"batch_size"`
	// Atomic writes all rows of one dataset in a single transaction.
	Atomic bool `yaml:"atomic"`
	// ReadAhead bounds how many files a folder run parses ahead of ingestion.
	ReadAhead int `yaml:"read_ahead"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Job labels metrics and log lines.
	Job     string  `yaml:"job"`
	Metrics Metrics `yaml:"metrics"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "", "none", "prometheus" or "datadog".
	Backend        string `yaml:"backend"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	DatadogAddr    string `yaml:"datadog_addr"`
}

// LoadFromArgs builds a Config by loading the optional YAML file named by
// -config (or INGEST_CONFIG), seeding every flag's default from the
// environment (falling back to the file value), and then parsing args.
// Positional arguments remain available through fs.Args().
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*Config, error) {
	path := configPath(args)
	if path == "" {
		path = getenv("INGEST_CONFIG")
	}
	base := Config{}
	if path != "" {
		var err error
		if base, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	applyDefaults(&base)

	env := func(d string, keys ...string) string {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				return v
			}
		}
		return d
	}
	// badEnv holds malformed integer variables by the flag they seed. They
	// fail the load unless the flag is given explicitly.
	badEnv := map[string]error{}
	intEnv := func(flagName string, d int, keys ...string) int {
		for _, k := range keys {
			v := strings.TrimSpace(getenv(k))
			if v == "" {
				continue
			}
			i, err := strconv.Atoi(v)
			if err != nil {
				badEnv[flagName] = fmt.Errorf("config: %s=%q is not an integer", k, v)
				return d
			}
			return i
		}
		return d
	}
	boolEnv := func(d bool, keys ...string) bool {
		switch strings.ToLower(env("", keys...)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		return d
	}

	cfg := &Config{}
	var ignored string
	fs.StringVar(&ignored, "config", path, "Optional YAML config file")

	fs.StringVar(&cfg.Driver, "driver", env(base.Driver, "DB_DRIVER"), "Database driver: mysql, postgres, mssql or sqlite")
	fs.StringVar(&cfg.DSN, "dsn", env(base.DSN, "DB_DSN"), "Full DSN; overrides host/port/user/password/database")
	fs.StringVar(&cfg.Host, "host", env(base.Host, "MYSQL_HOST", "DB_HOST"), "DB host")
	fs.IntVar(&cfg.Port, "port", intEnv("port", base.Port, "MYSQL_PORT", "DB_PORT"), "DB port (0 = driver default)")
	fs.StringVar(&cfg.User, "user", env(base.User, "MYSQL_USER", "DB_USER"), "DB user")
	fs.StringVar(&cfg.Password, "password", env(base.Password, "MYSQL_PASSWORD", "DB_PASSWORD"), "DB password")
	fs.StringVar(&cfg.Database, "database", env(base.Database, "MYSQL_DATABASE", "DB_NAME"), "Database name (file path for sqlite)")

	fs.IntVar(&cfg.BatchSize, "batch_size", intEnv("batch_size", base.BatchSize, "BATCH_SIZE"), "Rows per committed batch")
	fs.BoolVar(&cfg.Atomic, "atomic", boolEnv(base.Atomic, "INGEST_ATOMIC"), "Write each dataset in one transaction")
	fs.IntVar(&cfg.ReadAhead, "read_ahead", intEnv("read_ahead", base.ReadAhead, "INGEST_READ_AHEAD"), "Files parsed ahead during folder runs")

	fs.StringVar(&cfg.LogLevel, "log_level", env(base.LogLevel, "LOG_LEVEL"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log_format", env(base.LogFormat, "LOG_FORMAT"), "Log format: console or json")

	fs.StringVar(&cfg.Job, "job", env(base.Job, "INGEST_JOB"), "Job name used for metrics labels")
	fs.StringVar(&cfg.Metrics.Backend, "metrics", env(base.Metrics.Backend, "METRICS_BACKEND"), "Metrics backend: none, prometheus or datadog")
	fs.StringVar(&cfg.Metrics.PushgatewayURL, "pushgateway_url", env(base.Metrics.PushgatewayURL, "PUSHGATEWAY_URL"), "Prometheus Pushgateway URL")
	fs.StringVar(&cfg.Metrics.DatadogAddr, "datadog_addr", env(base.Metrics.DatadogAddr, "DD_AGENT_ADDR"), "DogStatsD address")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { delete(badEnv, f.Name) })
	for _, name := range []string{"port", "batch_size", "read_ahead"} {
		if err := badEnv[name]; err != nil {
			return nil, err
		}
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	return cfg, nil
}

// Load is the production entry point using flag.CommandLine, os.Getenv and
// os.Args[1:].
func Load() (*Config, error) {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// LoadFile decodes a YAML config file. Unknown keys are rejected.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	var c Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, nil
}

func applyDefaults(c *Config) {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ReadAhead == 0 {
		c.ReadAhead = DefaultReadAhead
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Job == "" {
		c.Job = DefaultJob
	}
}

// configPath finds -config/--config in args before flag parsing so the file
// can seed flag defaults.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// DefaultPort returns the conventional port for driver, or 0.
func DefaultPort(driver string) int {
	switch driver {
	case "mysql":
		return 3306
	case "postgres":
		return 5432
	case "mssql":
		return 1433
	}
	return 0
}

// ConnString returns the DSN handed to the storage backend: DSN verbatim when
// set, otherwise one built from the discrete parts.
func (c *Config) ConnString() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	return c.buildDSN(c.Password)
}

// RedactedConnString is ConnString with the password masked, for logs.
func (c *Config) RedactedConnString() string {
	if c.DSN != "" {
		if u, err := url.Parse(c.DSN); err == nil && u.User != nil {
			if _, ok := u.User.Password(); ok {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
				return u.String()
			}
		}
		if mc, err := mysql.ParseDSN(c.DSN); err == nil && mc.Passwd != "" {
			mc.Passwd = "xxxxx"
			return mc.FormatDSN()
		}
		return c.DSN
	}
	pw := ""
	if c.Password != "" {
		pw = "xxxxx"
	}
	s, err := c.buildDSN(pw)
	if err != nil {
		return ""
	}
	return s
}

func (c *Config) buildDSN(password string) (string, error) {
	port := c.Port
	if port == 0 {
		port = DefaultPort(c.Driver)
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	switch c.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = c.Database
		return mc.FormatDSN(), nil
	case "postgres":
		u := url.URL{Scheme: "postgres", Host: addr, Path: "/" + c.Database}
		if c.User != "" {
			u.User = userInfo(c.User, password)
		}
		return u.String(), nil
	case "mssql":
		u := url.URL{Scheme: "sqlserver", Host: addr}
		if c.User != "" {
			u.User = userInfo(c.User, password)
		}
		if c.Database != "" {
			u.RawQuery = url.Values{"database": {c.Database}}.Encode()
		}
		return u.String(), nil
	case "sqlite":
		if c.Database == "" {
			return "", fmt.Errorf("config: sqlite needs database (a file path) or dsn")
		}
		return c.Database, nil
	}
	return "", fmt.Errorf("config: unsupported driver %q", c.Driver)
}

func userInfo(user, password string) *url.Userinfo {
	if password == "" {
		return url.User(user)
	}
	return url.UserPassword(user, password)
}
