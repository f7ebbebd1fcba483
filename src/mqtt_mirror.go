package main

import (
	"context"
	"log"

	"github.com/tidwall/gjson"

	"github.com/ryansname/tswdash/src/stream"
)

// mirrorMessage routes a frame: records to topic, error frames to topic/error
func mirrorMessage(topic string, frame []byte) MQTTMessage {
	if gjson.GetBytes(frame, "error").Exists() {
		topic += "/error"
	}
	return MQTTMessage{Topic: topic, Payload: frame}
}

// mqttMirrorWorker subscribes to the hub and forwards every frame to MQTT.
// Being attached keeps the poll loop running even with no dashboards open.
func mqttMirrorWorker(ctx context.Context, hub *stream.Hub, topic string, sender *MQTTSender) {
	frames, detach := hub.Attach(stream.DefaultBuffer)
	defer detach()

	log.Printf("MQTT mirror started, publishing to %s\n", topic)
	for {
		select {
		case frame := <-frames:
			sender.Send(ctx, mirrorMessage(topic, frame))
		case <-ctx.Done():
			log.Println("MQTT mirror stopped")
			return
		}
	}
}
