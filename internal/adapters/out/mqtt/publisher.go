// Package mqtt pushes engine events to drivers' devices over an MQTT broker.
//
// Every event goes to <prefix>/orders/<order_id>/<type>. Events that concern a
// driver directly (interest, assignment, position) are also sent to
// <prefix>/drivers/<driver_id>/<type>.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/event"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	DefaultTopicPrefix = "dispatch"
	DefaultQoS         = byte(1)

	publishTimeout = 5 * time.Second
)

type Client interface {
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type Publisher struct {
	client Client
	prefix string
	qos    byte
}

func Connect(broker, clientID string) (Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", broker, token.Error())
	}
	return client, nil
}

func NewPublisher(client Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &Publisher{client: client, prefix: prefix, qos: DefaultQoS}
}

func (p *Publisher) Publish(ctx context.Context, events ...event.Event) error {
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.Type, err)
		}
		for _, topic := range p.topics(e) {
			if err = p.send(ctx, topic, body); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

func (p *Publisher) topics(e event.Event) []string {
	var topics []string
	if orderID := e.OrderID(); orderID != "" {
		topics = append(topics, fmt.Sprintf("%s/orders/%s/%s", p.prefix, orderID, e.Type))
	}
	if driverID, ok := e.Payload["driver_id"].(string); ok && driverID != "" {
		topics = append(topics, fmt.Sprintf("%s/drivers/%s/%s", p.prefix, driverID, e.Type))
	}
	return topics
}

func (p *Publisher) send(ctx context.Context, topic string, body []byte) error {
	token := p.client.Publish(topic, p.qos, false, body)

	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
