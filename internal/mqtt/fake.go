package mqtt

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Telemetry contains every published report.
	Telemetry []Telemetry

	// Payloads contains the JSON payloads of the reports.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the report.
func (f *FakePublisher) Publish(t Telemetry) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(t)
	if err != nil {
		return err
	}
	f.Telemetry = append(f.Telemetry, t)
	f.Payloads = append(f.Payloads, payload)
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
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports the Connected field.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
