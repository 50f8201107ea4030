package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/contact.report/internal/monitoring"
)

// MQTTEmitter publishes frame events as JSON to a single topic.
type MQTTEmitter struct {
	client mqtt.Client
	topic  string
}

// NewMQTTEmitter connects to the broker and returns a ready emitter.
func NewMQTTEmitter(broker, clientID, topic string) (*MQTTEmitter, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(2 * time.Second)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", broker, token.Error())
	}
	monitoring.Logf("[events] connected to broker %s, topic %s", broker, topic)
	return &MQTTEmitter{client: client, topic: topic}, nil
}

// Emit publishes the event at QoS 0. Contact reports are superseded by the
// next tick within milliseconds, so redelivery is worthless.
func (e *MQTTEmitter) Emit(event *FrameEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal frame event: %w", err)
	}
	token := e.client.Publish(e.topic, 0, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish frame event: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (e *MQTTEmitter) Close() error {
	e.client.Disconnect(250)
	return nil
}
