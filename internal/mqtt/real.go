package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/gas-interlock/internal/logic"
)

const (
	retryInterval = 5 * time.Second
	flushTimeout  = 2 * time.Second
)

// RealPublisher publishes to an actual MQTT broker.
//
// Publish and PublishSystem only enqueue; a single sender goroutine hands
// messages to the client one at a time, oldest first, so the control loop
// never waits on the broker and the broker sees events in the order they
// happened. Messages produced while the broker is unreachable wait in a ring
// buffer. Once a message has been accepted by the client it is never
// re-enqueued: the client redelivers unacknowledged QoS 1 messages itself
// after a reconnect.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	buf       *ringBuffer
	inflight  *bufferedMsg // handed to the client, not yet acknowledged
	connected bool         // at least one successful connect

	retry     time.Duration
	flush     time.Duration
	wake      chan struct{}
	closing   chan struct{} // sender exits once nothing is deliverable
	abort     chan struct{} // sender exits now
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewRealPublisher starts connecting to broker in the background and
// returns immediately; the interlock must keep running without a broker.
func NewRealPublisher(broker, clientID string, bufferSize int) *RealPublisher {
	return newRealPublisher(broker, clientID, bufferSize, retryInterval, flushTimeout)
}

func newRealPublisher(broker, clientID string, bufferSize int, retry, flush time.Duration) *RealPublisher {
	p := &RealPublisher{
		buf:     newRingBuffer(bufferSize),
		retry:   retry,
		flush:   flush,
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		abort:   make(chan struct{}),
		stopped: make(chan struct{}),
	}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retry).
		SetMaxReconnectInterval(retry).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	go p.run()
	p.client.Connect()

	return p
}

// onConnect queues RECONNECTED behind anything still buffered and wakes
// the sender.
func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	pending := p.buf.len()
	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		p.buf.push(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
	}
	p.mu.Unlock()

	log.Printf("mqtt: connected, %d buffered messages to replay", pending)
	p.signal()
}

func (p *RealPublisher) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// next returns the message the sender should deliver: the unacknowledged
// one if any, otherwise the oldest buffered one.
func (p *RealPublisher) next() (bufferedMsg, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight == nil {
		msg, ok := p.buf.shift()
		if !ok {
			return bufferedMsg{}, false
		}
		p.inflight = &msg
	}
	return *p.inflight, true
}

func (p *RealPublisher) delivered() {
	p.mu.Lock()
	p.inflight = nil
	p.mu.Unlock()
}

func (p *RealPublisher) isClosing() bool {
	select {
	case <-p.closing:
		return true
	default:
		return false
	}
}

// idle blocks until there may be work, the timeout fires or Close is
// called. It reports false once the sender must stop immediately.
func (p *RealPublisher) idle(timeout <-chan time.Time) bool {
	select {
	case <-p.wake:
	case <-timeout:
	case <-p.closing:
	case <-p.abort:
		return false
	}
	return true
}

// run is the sender goroutine. After Close it keeps going only while there
// is something it can deliver.
func (p *RealPublisher) run() {
	defer close(p.stopped)

	for {
		var msg bufferedMsg
		ok := false
		if p.client.IsConnectionOpen() {
			msg, ok = p.next()
		}
		if !ok {
			if p.isClosing() || !p.idle(nil) {
				return
			}
			continue
		}

		token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		select {
		case <-token.Done():
		case <-p.abort:
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish to %s failed: %v", msg.topic, err)
			if p.isClosing() || !p.idle(time.After(p.retry)) {
				return
			}
			continue
		}
		p.delivered()
	}
}

func (p *RealPublisher) enqueue(msg bufferedMsg) {
	p.mu.Lock()
	p.buf.push(msg)
	p.mu.Unlock()
	p.signal()
}

// Publish queues a mode change event for the MQTT broker.
// QoS 1 and retained, so a new subscriber always learns the current mode.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	p.enqueue(bufferedMsg{topic: Topic, payload: payload, qos: 1, retained: true})
	return nil
}

// PublishSystem queues a system lifecycle event for the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	p.enqueue(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages not yet acknowledged by the broker
// and the number dropped because the buffer was full.
func (p *RealPublisher) Buffered() (pending, dropped int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pending = p.buf.len()
	if p.inflight != nil {
		pending++
	}
	return pending, p.buf.dropped
}

// Close gives queued messages up to the flush timeout to reach the broker,
// then stops the sender and disconnects. It is safe to call more than once.
func (p *RealPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.closing)
		select {
		case <-p.stopped:
		case <-time.After(p.flush):
			close(p.abort)
			<-p.stopped
		}
		p.client.Disconnect(250)
	})
	return nil
}
