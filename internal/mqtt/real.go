package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Options configures the real publisher.
type Options struct {
	Broker      string
	ClientID    string // empty derives "motodash-<random>"
	BufferSize  int    // messages kept while disconnected
	WaitTimeout time.Duration
}

// RealPublisher publishes to an MQTT broker. The connection is made in the
// background and retried forever; messages published while disconnected
// are queued and replayed on reconnect.
type RealPublisher struct {
	client  paho.Client
	timeout time.Duration

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	everUp    bool
}

// NewRealPublisher starts connecting to the broker and returns immediately.
func NewRealPublisher(o Options) *RealPublisher {
	if o.ClientID == "" {
		o.ClientID = "motodash-" + uuid.NewString()[:8]
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 100
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 5 * time.Second
	}

	p := &RealPublisher{
		timeout: o.WaitTimeout,
		buf:     newRingBuffer(o.BufferSize),
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	log.Printf("mqtt: connecting to %s as %s", o.Broker, o.ClientID)
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everUp
	p.everUp = true
	pending := p.buf.drainAll()
	p.mu.Unlock()

	log.Printf("mqtt: connected, replaying %d buffered messages", len(pending))
	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		pending = append(pending, bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: true})
	}
	for _, m := range pending {
		p.send(m)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

func (p *RealPublisher) enqueue(m bufferedMsg) {
	p.mu.Lock()
	p.buf.push(m)
	p.mu.Unlock()
}

// send hands m to the client and returns at once. The broker
// acknowledgement is awaited on its own goroutine so the caller's loop
// never stalls on a slow or half-open connection; a message that times out
// or fails goes back into the offline buffer.
func (p *RealPublisher) send(m bufferedMsg) {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	go func() {
		if err := p.await(m.topic, token); err != nil {
			log.Printf("mqtt: %v, queued for replay", err)
			p.enqueue(m)
		}
	}()
}

func (p *RealPublisher) await(topic string, token paho.Token) error {
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// deliver sends m, or queues it while disconnected.
func (p *RealPublisher) deliver(m bufferedMsg) {
	if !p.IsConnected() {
		p.enqueue(m)
		return
	}
	p.send(m)
}

// Publish sends a telemetry report at QoS 0, not retained. Delivery
// failures are buffered for replay, not returned.
func (p *RealPublisher) Publish(t Telemetry) error {
	payload, err := FormatPayload(t)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	p.deliver(bufferedMsg{topic: TopicTelemetry, payload: payload})
	return nil
}

// PublishSystem sends a lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	p.deliver(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns how many messages wait for the broker.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
