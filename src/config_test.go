package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryansname/tswdash/src/telemetry"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(nil, envMap(map[string]string{"USERPROFILE": "/home/driver"}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:31270", cfg.APIURL)
	assert.Equal(t,
		filepath.Join("/home/driver", "Documents", "My Games", "TrainSimWorld5", "Saved", "Config", "CommAPIKey.txt"),
		cfg.APIKeyPath)
	assert.Equal(t, telemetry.Metric, cfg.Units)
	assert.Equal(t, 1, cfg.SubscriptionID)
	assert.Equal(t, "0.0.0.0:3000", cfg.ListenAddr)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 400*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.SubscribeDelay)
	assert.Equal(t, 3*time.Second, cfg.KeyRetryInterval)
	assert.False(t, cfg.MQTT.Enabled())
	assert.Equal(t, "tswdash/telemetry", cfg.MQTT.Topic)
	assert.False(t, cfg.DebugConsole)
}

func TestLoadConfig_EnvAndFlags(t *testing.T) {
	env := envMap(map[string]string{
		"TSW_UNITS":     "imperial",
		"LISTEN_ADDR":   "127.0.0.1:8080",
		"POLL_INTERVAL": "1s",
		"MQTT_BROKER":   "homeassistant.lan",
		"DEBUG_CONSOLE": "true",
	})

	cfg, err := loadConfig([]string{"--listen", ":9000", "--request-timeout", "750ms"}, env)
	require.NoError(t, err)

	assert.Equal(t, telemetry.Imperial, cfg.Units)
	assert.Equal(t, ":9000", cfg.ListenAddr, "flag wins over env")
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.True(t, cfg.MQTT.Enabled())
	assert.True(t, cfg.DebugConsole)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"bad units", []string{"--units", "furlongs"}, nil},
		{"bad duration env", nil, map[string]string{"POLL_INTERVAL": "soon"}},
		{"bad int env", nil, map[string]string{"TSW_SUBSCRIPTION_ID": "one"}},
		{"timeout longer than interval", []string{"--request-timeout", "2s"}, nil},
		{"zero interval", []string{"--poll-interval", "0s"}, nil},
		{"unknown flag", []string{"--nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.args, envMap(tt.env))
			assert.Error(t, err)
		})
	}
}
