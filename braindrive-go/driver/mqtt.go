package driver

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/braindrive/braindrive/braindrive-go/stream"
	"github.com/braindrive/braindrive/braindrive-golib/errors"
)

const mqttTimeout = 5 * time.Second

// MQTTEmitter publishes every prediction event as JSON, for dashboards
// and experiment recording to subscribe to.
type MQTTEmitter struct {
	client mqtt.Client
	topic  string
}

// NewMQTTEmitter connects to the broker and publishes to topic.
func NewMQTTEmitter(broker, clientID, topic string) (*MQTTEmitter, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return nil, errors.Errorf("timed out connecting to broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connecting to broker %s", broker)
	}
	return &MQTTEmitter{client: client, topic: topic}, nil
}

func (e *MQTTEmitter) Close() {
	e.client.Disconnect(250)
}

// Emit publishes the event at QoS 0; a dropped telemetry message is
// not worth stalling the control loop for.
func (e *MQTTEmitter) Emit(event stream.PredictionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.WithStack(err)
	}
	token := e.client.Publish(e.topic, 0, false, payload)
	if !token.WaitTimeout(mqttTimeout) {
		return errors.Errorf("timed out publishing to %s", e.topic)
	}
	return errors.WrapfOrNil(token.Error(), "publishing to %s", e.topic)
}
