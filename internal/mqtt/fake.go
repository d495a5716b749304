package mqtt

import (
	"github.com/sweeney/gas-interlock/internal/logic"
)

// FakePublisher records published events for test assertions. It also
// mimics broker retention: Retained holds the last retained payload per topic.
type FakePublisher struct {
	Events         []logic.Event
	Payloads       [][]byte
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Retained maps topic to the payload a new subscriber would receive.
	Retained map[string][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Retained: make(map[string][]byte)}
}

// Publish records the mode change event. Mode changes are always retained.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	f.retain(Topic, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	if event.Retained {
		f.retain(TopicSystem, payload)
	}

	return nil
}

func (f *FakePublisher) retain(topic string, payload []byte) {
	if f.Retained == nil {
		f.Retained = make(map[string][]byte)
	}
	f.Retained[topic] = payload
}

// Modes returns the destination mode of every recorded event, in order.
func (f *FakePublisher) Modes() []logic.Mode {
	modes := make([]logic.Mode, len(f.Events))
	for i, e := range f.Events {
		modes[i] = e.To
	}
	return modes
}

// SystemEventNames returns the Event field of every recorded system event.
func (f *FakePublisher) SystemEventNames() []string {
	names := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		names[i] = e.Event
	}
	return names
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events and injected errors.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{Retained: make(map[string][]byte)}
}
