package main

import (
	"context"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTMessage represents an outgoing MQTT message
type MQTTMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// MQTTSender wraps a channel for sending MQTT messages
type MQTTSender struct {
	ch chan<- MQTTMessage
}

// NewMQTTSender creates a new MQTTSender wrapping the given channel
func NewMQTTSender(ch chan<- MQTTMessage) *MQTTSender {
	return &MQTTSender{ch: ch}
}

// Send queues msg, giving up if ctx ends first
func (s *MQTTSender) Send(ctx context.Context, msg MQTTMessage) {
	select {
	case s.ch <- msg:
	case <-ctx.Done():
	}
}

// pendingQueue keeps only the newest message per topic, in first-queued order.
// Telemetry is a snapshot stream so anything older is stale.
type pendingQueue struct {
	order  []string
	latest map[string]MQTTMessage
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{latest: make(map[string]MQTTMessage)}
}

func (q *pendingQueue) Put(msg MQTTMessage) {
	if _, ok := q.latest[msg.Topic]; !ok {
		q.order = append(q.order, msg.Topic)
	}
	q.latest[msg.Topic] = msg
}

func (q *pendingQueue) Len() int {
	return len(q.order)
}

// Drain returns the queued messages and empties the queue
func (q *pendingQueue) Drain() []MQTTMessage {
	msgs := make([]MQTTMessage, 0, len(q.order))
	for _, topic := range q.order {
		msgs = append(msgs, q.latest[topic])
	}
	q.order = nil
	q.latest = make(map[string]MQTTMessage)
	return msgs
}

// publish sends msg without waiting for the broker on QoS 0
func publish(client mqtt.Client, msg MQTTMessage) {
	token := client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
	if msg.QoS == 0 {
		return
	}
	token.Wait()
	if token.Error() != nil {
		log.Printf("Failed to publish to %s: %v\n", msg.Topic, token.Error())
	}
}

// mqttSenderWorker publishes outgoing messages, holding the latest per topic while disconnected
func mqttSenderWorker(
	ctx context.Context,
	outgoingChan <-chan MQTTMessage,
	clientChan <-chan mqtt.Client,
) {
	log.Println("MQTT sender worker started")

	var client mqtt.Client
	queue := newPendingQueue()

	for {
		select {
		case newClient := <-clientChan:
			log.Println("MQTT sender worker received new client")
			client = newClient

			if client != nil && client.IsConnected() {
				queued := queue.Drain()
				for _, msg := range queued {
					publish(client, msg)
				}
				if len(queued) > 0 {
					log.Printf("MQTT sender worker processed %d queued messages\n", len(queued))
				}
			}

		case msg := <-outgoingChan:
			if client != nil && client.IsConnected() {
				publish(client, msg)
			} else {
				queue.Put(msg)
			}

		case <-ctx.Done():
			log.Println("MQTT sender worker stopped")
			return
		}
	}
}
