package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chxlky/trello-ringcentral-relay/internal/config"
	"github.com/m-mizutani/gt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600)).Required()
	return dir
}

func TestLoadFromFile(t *testing.T) {
	dir := writeConfig(t, `
[server]
port = "9000"
public_url = "https://relay.example.com/"

[trello]
api_key = "key"

[notification]
legacy_cards = true

[google.calendar]
calendar_id = "team@group.calendar.google.com"

[google.service_account]
type = "service_account"
client_email = "relay@example.iam.gserviceaccount.com"
`)

	cfg, err := config.Load(config.New(dir))
	gt.NoError(t, err).Required()

	gt.Value(t, cfg.Server.Port).Equal("9000")
	gt.Value(t, cfg.Server.PublicURL).Equal("https://relay.example.com")
	gt.Value(t, cfg.Database.Path).Equal("relay.db")
	gt.Value(t, cfg.RingCentral.Server).Equal("https://platform.ringcentral.com")
	gt.Bool(t, cfg.Notification.LegacyCards).True()
	gt.Bool(t, cfg.Calendar.Enabled()).True()

	var sa map[string]string
	gt.NoError(t, json.Unmarshal(cfg.Calendar.ServiceAccount, &sa)).Required()
	gt.Value(t, sa["client_email"]).Equal("relay@example.iam.gserviceaccount.com")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RELAY_TRELLO_API_KEY", "env-key")
	t.Setenv("RELAY_SERVER_PUBLIC_URL", "https://env.example.com")
	t.Setenv("RELAY_DATABASE_PATH", "/tmp/env.db")

	cfg, err := config.Load(config.New(t.TempDir()))
	gt.NoError(t, err).Required()

	gt.Value(t, cfg.Trello.APIKey).Equal("env-key")
	gt.Value(t, cfg.Database.Path).Equal("/tmp/env.db")
	gt.Bool(t, cfg.Calendar.Enabled()).False()
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	dir := writeConfig(t, `
[server]
public_url = "https://relay.example.com"
`)
	_, err := config.Load(config.New(dir))
	gt.Value(t, err).NotNil()

	dir = writeConfig(t, `
[server]
public_url = "https://relay.example.com"
[trello]
api_key = "key"
[google.calendar]
calendar_id = "cal"
`)
	_, err = config.Load(config.New(dir))
	gt.Value(t, err).NotNil()
}
