package main

import (
	"context"
	"log"
	"net"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// brokerURL accepts a bare host, host:port or a full URL. IPv6 hosts may
// be bare (::1) or bracketed ([::1]:1883).
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	if host, port, err := net.SplitHostPort(broker); err == nil {
		return "tcp://" + net.JoinHostPort(host, port)
	}
	return "tcp://" + net.JoinHostPort(strings.Trim(broker, "[]"), "1883")
}

// mqttWorker manages the MQTT connection and hands each connected client to the sender
func mqttWorker(
	ctx context.Context,
	cfg MQTTConfig,
	clientChan chan<- mqtt.Client,
) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v\n", err)
	})

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("Connected to MQTT broker at %s\n", cfg.Broker)

		select {
		case clientChan <- client:
			log.Println("Sent new MQTT client to sender worker")
		case <-ctx.Done():
		}
	})

	client := mqtt.NewClient(opts)

	// With ConnectRetry the token only completes once connected or on Disconnect
	log.Printf("Connecting to MQTT broker at %s...\n", cfg.Broker)
	client.Connect()

	<-ctx.Done()

	client.Disconnect(250)
	log.Println("Disconnected from MQTT broker")
}
