package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Session   SessionConfig
	Redis     RedisConfig
	History   HistoryConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	Debug        bool
}

type DataConfig struct {
	Root      string
	IndexFile string
	// Labels selects a column label profile: "standard", "compact" or "custom".
	Labels  string
	Columns []string
}

type SessionConfig struct {
	Backend    string
	TTLMinutes int
	CookieName string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type HistoryConfig struct {
	Enabled bool
	Path    string
}

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// Load reads config.yaml, LD_* environment variables and, when flags is
// non-nil, the --config, --host, --port and --debug command line flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/leveldensity")

	v.SetEnvPrefix("LD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
		if path, _ := flags.GetString("config"); path != "" {
			v.SetConfigFile(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Server.Debug {
		config.Logging.Level = "debug"
		config.Logging.Format = "console"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid session backend %q", c.Session.Backend)
	}
	if c.Data.Labels == "custom" && len(c.Data.Columns) != 3 {
		return fmt.Errorf("custom labels need exactly 3 columns, got %d", len(c.Data.Columns))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"server.host":  "host",
		"server.port":  "port",
		"server.debug": "debug",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8050)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.debug", false)

	v.SetDefault("data.root", ".")
	v.SetDefault("data.indexFile", "Arranged_data.csv")
	v.SetDefault("data.labels", "standard")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttlMinutes", 120)
	v.SetDefault("session.cookieName", "ld_session")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "./data/lookups.db")

	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.burst", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
