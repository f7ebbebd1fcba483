package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ryansname/tswdash/src/stream"
	"github.com/ryansname/tswdash/src/telemetry"
	"github.com/ryansname/tswdash/src/upstream"
)

// setupLogging tees log output into a rotating file when one is configured
func setupLogging(path string) io.Closer {
	if path == "" {
		return io.NopCloser(nil)
	}
	logFile := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return logFile
}

func main() {
	log.Println("Starting tswdash...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logFile := setupLogging(cfg.LogFile)
	defer logFile.Close()

	log.Printf("Using %s units\n", cfg.Units)

	// Create context for lifecycle management
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Println("\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	apiKey, err := waitForAPIKey(ctx, cfg.APIKeyPath, cfg.KeyRetryInterval)
	if err != nil {
		log.Println("Stopped before a CommAPIKey was found")
		return
	}

	metrics := newRelayMetrics()
	client := upstream.NewClient(cfg.APIURL, apiKey,
		upstream.WithTimeout(cfg.RequestTimeout),
		upstream.WithSubscriptionID(cfg.SubscriptionID),
		upstream.WithObserver(metrics),
	)
	subs := upstream.NewManager(client, telemetry.Paths(), cfg.SubscribeDelay)

	// Subscribe once before serving so the first client sees data immediately
	metrics.SetFailedPaths(len(subs.Setup(ctx)))
	if ctx.Err() != nil {
		return
	}

	pollSource := newPollWorker(client, subs, cfg.Units, cfg.PollInterval, metrics)
	hub := stream.NewHub(ctx, pollSource, stream.WithClientGauge(metrics.SetClients))

	if cfg.MQTT.Enabled() {
		mqttOutgoingChan := make(chan MQTTMessage, 100)
		mqttClientChan := make(chan mqtt.Client, 1) // Buffered to prevent blocking onConnect

		SafeGo(ctx, cancel, "mqtt-sender-worker", func(ctx context.Context) {
			mqttSenderWorker(ctx, mqttOutgoingChan, mqttClientChan)
		})

		SafeGo(ctx, cancel, "mqtt-worker", func(ctx context.Context) {
			mqttWorker(ctx, cfg.MQTT, mqttClientChan)
		})
		log.Println("MQTT worker started")

		sender := NewMQTTSender(mqttOutgoingChan)
		SafeGo(ctx, cancel, "mqtt-mirror", func(ctx context.Context) {
			mqttMirrorWorker(ctx, hub, cfg.MQTT.Topic, sender)
		})
	}

	if cfg.DebugConsole {
		SafeGo(ctx, cancel, "debug-worker", func(ctx context.Context) {
			debugWorker(ctx, cancel, hub)
		})
	}

	router := newRouter(hub, metrics.Handler())
	SafeGo(ctx, cancel, "http-server", func(ctx context.Context) {
		httpServerWorker(ctx, cfg.ListenAddr, router)
	})
	logBanner(cfg.ListenAddr)

	<-ctx.Done()
	hub.Wait()
	log.Println("Stopped")
}
