package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/ryansname/tswdash/src/telemetry"
	"github.com/ryansname/tswdash/src/upstream"
)

// Config holds runtime configuration. Values come from the environment
// (optionally via .env) and can be overridden by flags.
type Config struct {
	APIURL           string
	APIKeyPath       string
	Units            telemetry.UnitSystem
	SubscriptionID   int
	ListenAddr       string
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	SubscribeDelay   time.Duration
	KeyRetryInterval time.Duration
	MQTT             MQTTConfig
	LogFile          string
	DebugConsole     bool
}

// MQTTConfig configures the optional MQTT mirror
type MQTTConfig struct {
	Broker   string
	Username string
	Password string
	ClientID string
	Topic    string
}

// Enabled reports whether a broker was configured
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

// defaultAPIKeyPath is where Train Sim World 5 writes CommAPIKey.txt
func defaultAPIKeyPath(getenv func(string) string) string {
	home := getenv("USERPROFILE")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, "Documents", "My Games", "TrainSimWorld5", "Saved", "Config", "CommAPIKey.txt")
}

// envReader collects the first parse error so callers can check once
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) string(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
	return d
}

func (e *envReader) int(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
	return n
}

func (e *envReader) bool(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: %w", key, err)
	}
	return b
}

// loadConfig reads the environment through getenv, then applies flags from args
func loadConfig(args []string, getenv func(string) string) (Config, error) {
	env := &envReader{getenv: getenv}

	cfg := Config{
		APIURL:           env.string("TSW_API_URL", "http://localhost:31270"),
		APIKeyPath:       env.string("TSW_API_KEY_PATH", defaultAPIKeyPath(getenv)),
		SubscriptionID:   env.int("TSW_SUBSCRIPTION_ID", 1),
		ListenAddr:       env.string("LISTEN_ADDR", "0.0.0.0:3000"),
		PollInterval:     env.duration("POLL_INTERVAL", 500*time.Millisecond),
		RequestTimeout:   env.duration("REQUEST_TIMEOUT", upstream.DefaultTimeout),
		SubscribeDelay:   env.duration("SUBSCRIBE_DELAY", upstream.DefaultCreateDelay),
		KeyRetryInterval: env.duration("KEY_RETRY_INTERVAL", 3*time.Second),
		MQTT: MQTTConfig{
			Broker:   env.string("MQTT_BROKER", ""),
			Username: env.string("MQTT_USERNAME", ""),
			Password: env.string("MQTT_PASSWORD", ""),
			ClientID: env.string("MQTT_CLIENT_ID", "tswdash"),
			Topic:    env.string("MQTT_TOPIC", "tswdash/telemetry"),
		},
		LogFile:      env.string("LOG_FILE", ""),
		DebugConsole: env.bool("DEBUG_CONSOLE", false),
	}
	units := env.string("TSW_UNITS", "metric")
	if env.err != nil {
		return Config{}, env.err
	}

	flagSet := pflag.NewFlagSet("tswdash", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Train Sim World API base URL")
	flagSet.StringVar(&cfg.APIKeyPath, "api-key-path", cfg.APIKeyPath, "path to CommAPIKey.txt")
	flagSet.StringVarP(&units, "units", "u", units, "display units: metric or imperial")
	flagSet.IntVar(&cfg.SubscriptionID, "subscription-id", cfg.SubscriptionID, "upstream subscription set ID")
	flagSet.StringVarP(&cfg.ListenAddr, "listen", "l", cfg.ListenAddr, "dashboard listen address")
	flagSet.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "upstream poll interval")
	flagSet.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "upstream request timeout")
	flagSet.DurationVar(&cfg.SubscribeDelay, "subscribe-delay", cfg.SubscribeDelay, "delay between subscription requests")
	flagSet.StringVar(&cfg.MQTT.Broker, "mqtt-broker", cfg.MQTT.Broker, "MQTT broker host (empty disables the mirror)")
	flagSet.StringVar(&cfg.MQTT.Topic, "mqtt-topic", cfg.MQTT.Topic, "MQTT topic for telemetry records")
	flagSet.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also write logs to this rotating file")
	flagSet.BoolVarP(&cfg.DebugConsole, "debug", "d", cfg.DebugConsole, "interactive debug console")
	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}

	var err error
	if cfg.Units, err = telemetry.ParseUnitSystem(units); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.RequestTimeout <= 0 || c.RequestTimeout > c.PollInterval {
		return fmt.Errorf("request timeout %v must be positive and no longer than the poll interval %v",
			c.RequestTimeout, c.PollInterval)
	}
	if c.SubscribeDelay < 0 {
		return fmt.Errorf("subscribe delay must not be negative, got %v", c.SubscribeDelay)
	}
	if c.KeyRetryInterval <= 0 {
		return fmt.Errorf("key retry interval must be positive, got %v", c.KeyRetryInterval)
	}
	if c.APIURL == "" {
		return fmt.Errorf("api url must be set")
	}
	return nil
}
