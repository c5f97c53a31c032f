package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RealPublisher publishes to an actual MQTT broker. It connects in the
// background with retry, and queues messages published while disconnected
// for replay once the connection (re)establishes.
type RealPublisher struct {
	client paho.Client

	mu    sync.Mutex
	queue *offlineQueue
}

// queueCapacity bounds the offline replay queue. State messages are
// retained anyway, so losing old ones under prolonged outage is fine.
const queueCapacity = 64

// NewRealPublisher creates a publisher for the given broker. The initial
// connection happens in the background; publishes before it completes are
// queued.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{queue: newOfflineQueue(queueCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("shabbat-sensor").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			p.drain()
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// PublishState sends the retained state message.
func (p *RealPublisher) PublishState(msg StateMessage) error {
	payload, err := FormatStatePayload(msg)
	if err != nil {
		return fmt.Errorf("format state payload: %w", err)
	}
	// QoS 1 and retained: consumers that reconnect must see current state
	return p.publish(TopicState, payload, 1, true)
}

// PublishEvent sends a boundary transition event.
func (p *RealPublisher) PublishEvent(event Event) error {
	payload, err := FormatEventPayload(event)
	if err != nil {
		return fmt.Errorf("format event payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(TopicEvents, payload, 0, false)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) - we want shutdown events to be delivered
	return p.publish(TopicSystem, payload, 1, event.Retained)
}

func (p *RealPublisher) publish(topic string, payload []byte, qos byte, retained bool) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.queue.push(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.queue.len()
		p.mu.Unlock()
		log.Printf("mqtt: disconnected, queued message for %s (%d pending)", topic, n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout on %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// drain replays queued messages after (re)connection, oldest first.
func (p *RealPublisher) drain() {
	p.mu.Lock()
	msgs := p.queue.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	log.Printf("mqtt: connected, replaying %d queued messages", len(msgs))
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay timeout on %s", m.topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: replay to %s: %v", m.topic, err)
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
