// Package config loads the relay configuration from config.toml and
// RELAY_ prefixed environment variables.
package config

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Trello       Trello
	RingCentral  RingCentral
	Notification Notification
	Calendar     Calendar
}

type Server struct {
	Port      string
	PublicURL string
}

type Database struct {
	Path string
}

type Trello struct {
	APIKey string
}

type RingCentral struct {
	Server string
}

type Notification struct {
	LegacyCards       bool
	IconBaseURL       string
	FallbackAvatarURL string
}

// Calendar configures the optional Google Calendar due-date mirror.
type Calendar struct {
	CalendarID     string
	ServiceAccount []byte
}

// Enabled reports whether the due-date mirror should run.
func (c Calendar) Enabled() bool {
	return c.CalendarID != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.path", "relay.db")
	v.SetDefault("ringcentral.server", "https://platform.ringcentral.com")
	v.SetDefault("notification.legacy_cards", false)
	v.SetDefault("notification.icon_base_url", "https://trello-notification.ringcentral.com/icons")
	v.SetDefault("notification.fallback_avatar_url", "https://trello.com/favicon.ico")
}

// New returns a viper instance reading config.toml from the given
// directories, with RELAY_SERVER_PORT style environment overrides.
func New(paths ...string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the config file if there is one. A missing file is not an
// error; every key can come from the environment.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, goerr.Wrap(err, "failed to read config file")
		}
	}
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Port:      v.GetString("server.port"),
			PublicURL: strings.TrimSuffix(v.GetString("server.public_url"), "/"),
		},
		Database:    Database{Path: v.GetString("database.path")},
		Trello:      Trello{APIKey: v.GetString("trello.api_key")},
		RingCentral: RingCentral{Server: strings.TrimSuffix(v.GetString("ringcentral.server"), "/")},
		Notification: Notification{
			LegacyCards:       v.GetBool("notification.legacy_cards"),
			IconBaseURL:       strings.TrimSuffix(v.GetString("notification.icon_base_url"), "/"),
			FallbackAvatarURL: v.GetString("notification.fallback_avatar_url"),
		},
		Calendar: Calendar{CalendarID: v.GetString("google.calendar.calendar_id")},
	}

	// The service account may be an inline TOML table or a JSON string.
	if raw := v.Get("google.service_account"); raw != nil {
		switch sa := raw.(type) {
		case string:
			cfg.Calendar.ServiceAccount = []byte(sa)
		default:
			b, err := json.Marshal(v.GetStringMap("google.service_account"))
			if err != nil {
				return nil, goerr.Wrap(err, "failed to encode google.service_account")
			}
			cfg.Calendar.ServiceAccount = b
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Trello.APIKey == "" {
		return goerr.New("trello.api_key is required")
	}
	if c.Server.PublicURL == "" {
		return goerr.New("server.public_url is required to build webhook callback URLs")
	}
	if c.Calendar.Enabled() && len(c.Calendar.ServiceAccount) == 0 {
		return goerr.New("google.service_account is required when google.calendar.calendar_id is set")
	}
	return nil
}
