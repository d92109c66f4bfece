// Package conf loads pwagen settings from config files, .env files and
// PWAGEN_* environment variables.
package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pwaspark/pwagen/internal/errors"
)

const (
	envPrefix         = "PWAGEN"
	defaultConfigName = "config"
)

// Database types understood by the datastore.
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// Settings is the complete runtime configuration.
type Settings struct {
	Main     MainSettings     `mapstructure:"main" yaml:"main"`
	Server   ServerSettings   `mapstructure:"server" yaml:"server"`
	Database DatabaseSettings `mapstructure:"database" yaml:"database"`
	Auth     AuthSettings     `mapstructure:"auth" yaml:"auth"`
	MQTT     MQTTSettings     `mapstructure:"mqtt" yaml:"mqtt"`
	Sentry   SentrySettings   `mapstructure:"sentry" yaml:"sentry"`
	Cache    CacheSettings    `mapstructure:"cache" yaml:"cache"`
	Records  RecordsSettings  `mapstructure:"records" yaml:"records"`
}

// MainSettings holds process-wide options.
type MainSettings struct {
	Name      string `mapstructure:"name" yaml:"name"`
	LogLevel  string `mapstructure:"loglevel" yaml:"loglevel"`
	LogFormat string `mapstructure:"logformat" yaml:"logformat"` // "json" or "console"
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Listen          string   `mapstructure:"listen" yaml:"listen"`
	BaseURL         string   `mapstructure:"baseurl" yaml:"baseurl"`
	ReadTimeout     Duration `mapstructure:"readtimeout" yaml:"readtimeout"`
	WriteTimeout    Duration `mapstructure:"writetimeout" yaml:"writetimeout"`
	ShutdownTimeout Duration `mapstructure:"shutdowntimeout" yaml:"shutdowntimeout"`
	CORSOrigins     []string `mapstructure:"corsorigins" yaml:"corsorigins"`
}

// DatabaseSettings selects and configures the record store.
type DatabaseSettings struct {
	Type  string        `mapstructure:"type" yaml:"type"`
	Path  string        `mapstructure:"path" yaml:"path"`
	Debug bool          `mapstructure:"debug" yaml:"debug"`
	MySQL MySQLSettings `mapstructure:"mysql" yaml:"mysql"`
}

// MySQLSettings holds MySQL connection parameters.
type MySQLSettings struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// AuthSettings configures bearer token verification.
type AuthSettings struct {
	JWTSecret string `mapstructure:"jwtsecret" yaml:"jwtsecret"`
	Issuer    string `mapstructure:"issuer" yaml:"issuer"`
	Audience  string `mapstructure:"audience" yaml:"audience"`
}

// MQTTSettings configures the optional record event publisher.
type MQTTSettings struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	Broker         string   `mapstructure:"broker" yaml:"broker"`
	ClientID       string   `mapstructure:"clientid" yaml:"clientid"`
	Topic          string   `mapstructure:"topic" yaml:"topic"`
	Username       string   `mapstructure:"username" yaml:"username"`
	Password       string   `mapstructure:"password" yaml:"password"`
	QoS            int      `mapstructure:"qos" yaml:"qos"`
	Retain         bool     `mapstructure:"retain" yaml:"retain"`
	ConnectTimeout Duration `mapstructure:"connecttimeout" yaml:"connecttimeout"`
	PublishTimeout Duration `mapstructure:"publishtimeout" yaml:"publishtimeout"`
}

// SentrySettings configures error reporting.
type SentrySettings struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// CacheSettings configures the hosted artifact cache.
type CacheSettings struct {
	TTL             Duration `mapstructure:"ttl" yaml:"ttl"`
	CleanupInterval Duration `mapstructure:"cleanupinterval" yaml:"cleanupinterval"`
}

// RecordsSettings limits saved app records.
type RecordsSettings struct {
	MaxPerUser int `mapstructure:"maxperuser" yaml:"maxperuser"` // 0 means unlimited
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("main.name", "pwagen")
	v.SetDefault("main.loglevel", "info")
	v.SetDefault("main.logformat", "console")

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.baseurl", "http://localhost:8080")
	v.SetDefault("server.readtimeout", "15s")
	v.SetDefault("server.writetimeout", "30s")
	v.SetDefault("server.shutdowntimeout", "10s")
	v.SetDefault("server.corsorigins", []string{})

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.path", "pwagen.db")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "pwagen")

	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.clientid", "pwagen")
	v.SetDefault("mqtt.topic", "pwagen")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("mqtt.connecttimeout", "10s")
	v.SetDefault("mqtt.publishtimeout", "5s")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")

	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.cleanupinterval", "30m")

	v.SetDefault("records.maxperuser", 0)
}

// Load reads settings. An explicit configFile must exist; otherwise
// config.yaml is searched in the working directory, ~/.config/pwagen and
// /etc/pwagen and a missing file is not an error. A .env file in the
// working directory is applied to the environment first.
func Load(configFile string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/pwagen")
		}
		v.AddConfigPath("/etc/pwagen")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks cross-field constraints.
func (s *Settings) Validate() error {
	switch s.Database.Type {
	case DatabaseSQLite:
		if s.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DatabaseMySQL:
		if s.Database.MySQL.Host == "" || s.Database.MySQL.Database == "" {
			return fmt.Errorf("database.mysql.host and database.mysql.database are required for mysql")
		}
	default:
		return fmt.Errorf("unsupported database.type %q (want %q or %q)", s.Database.Type, DatabaseSQLite, DatabaseMySQL)
	}

	if s.MQTT.Enabled && s.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	if s.MQTT.QoS < 0 || s.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", s.MQTT.QoS)
	}
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		return fmt.Errorf("sentry.dsn is required when sentry is enabled")
	}
	if s.Cache.TTL.Std() < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if s.Records.MaxPerUser < 0 {
		return fmt.Errorf("records.maxperuser must not be negative")
	}
	return nil
}
