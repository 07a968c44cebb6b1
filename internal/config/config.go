package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/PlanningPoker/internal/app"
	"github.com/dkeye/PlanningPoker/internal/backlog"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "POKER"

type Storage struct {
	Driver      string `mapstructure:"driver"`
	BacklogPath string `mapstructure:"backlog_path"`
	PausePath   string `mapstructure:"pause_path"`
	SQLitePath  string `mapstructure:"sqlite_path"`
}

type RateLimit struct {
	Votes    int           `mapstructure:"votes"`
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Mode           string         `mapstructure:"mode"`
	Port           int            `mapstructure:"port"`
	StaticPath     string         `mapstructure:"static_path"`
	ReadLimit      int64          `mapstructure:"read_limit"`
	PingPeriod     time.Duration  `mapstructure:"ping_period"`
	Secret         string         `mapstructure:"secret"`
	LogLevel       string         `mapstructure:"log_level"`
	AllowList      []string       `mapstructure:"allow_list"`
	Roles          app.RoleNames  `mapstructure:"roles"`
	IdentitySwitch bool           `mapstructure:"identity_switch"`
	Limits         backlog.Limits `mapstructure:"limits"`
	Storage        Storage        `mapstructure:"storage"`
	RateLimit      RateLimit      `mapstructure:"rate_limit"`
}

// Loader owns the viper instance so the file can be watched after Load.
type Loader struct {
	v    *viper.Viper
	file string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("allow_list", []string{})
	v.SetDefault("roles.product_owner", "po")
	v.SetDefault("roles.scrum_master", "sm")
	v.SetDefault("identity_switch", false)
	v.SetDefault("limits.priority_min", 1)
	v.SetDefault("limits.priority_max", 10)
	v.SetDefault("limits.difficulty_min", 1)
	v.SetDefault("limits.difficulty_max", 100)
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.backlog_path", "data/backlog.json")
	v.SetDefault("storage.pause_path", "data/backlog_pause.json")
	v.SetDefault("storage.sqlite_path", "data/poker.db")
	v.SetDefault("rate_limit.votes", 5)
	v.SetDefault("rate_limit.interval", "10s")
}

// Flags declares the command-line overrides.
func Flags(args []string) (*pflag.FlagSet, error) {
	fs := pflag.NewFlagSet("poker", pflag.ContinueOnError)
	fs.String("config", "", "path to the YAML config file")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("mode", "", "gin mode: debug|release|test")
	fs.String("log-level", "", "zerolog level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs, nil
}

// Load reads config/config.<CONFIG_ENV>.yaml (or --config), then env, then flags.
func Load(flags *pflag.FlagSet) (*Config, *Loader, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	if flags != nil {
		if f, _ := flags.GetString("config"); f != "" {
			fileName = f
		}
		for key, flag := range map[string]string{"port": "port", "mode": "mode", "log_level": "log-level"} {
			if fl := flags.Lookup(flag); fl != nil && fl.Changed {
				if err := v.BindPFlag(key, fl); err != nil {
					return nil, nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
		fileName = ""
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("storage", cfg.Storage.Driver).Msg("config resolved")
	return cfg, &Loader{v: v, file: fileName}, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage.driver must be file or sqlite, got %q", c.Storage.Driver)
	}
	if c.Limits.PriorityMin > c.Limits.PriorityMax {
		return fmt.Errorf("limits: priority_min %d > priority_max %d", c.Limits.PriorityMin, c.Limits.PriorityMax)
	}
	if c.Limits.DifficultyMin > c.Limits.DifficultyMax {
		return fmt.Errorf("limits: difficulty_min %d > difficulty_max %d", c.Limits.DifficultyMin, c.Limits.DifficultyMax)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// Watch calls onChange with the re-read config every time the file changes.
// Invalid edits are logged and skipped.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.file == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(l.v)
		if err != nil {
			log.Error().Err(err).Str("module", "config").Str("file", e.Name).Msg("config reload rejected")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Str("op", e.Op.String()).Msg("config reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
}
