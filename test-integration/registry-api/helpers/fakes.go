package helpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/plexushq/plexus-registry-server/pkg/discovery"
	"github.com/plexushq/plexus-registry-server/pkg/events"
)

// FakeBackend is an in-memory discovery backend. It can be switched into a
// failing mode to exercise the registry's cache-only degradation.
type FakeBackend struct {
	mu        sync.Mutex
	failing   bool
	instances map[string][]discovery.InstanceMetadata
	byID      map[string]string
}

// NewFakeBackend creates an empty fake discovery backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		instances: make(map[string][]discovery.InstanceMetadata),
		byID:      make(map[string]string),
	}
}

// SetFailing toggles the failing mode. While failing, every call returns an
// error.
func (b *FakeBackend) SetFailing(failing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing = failing
}

// Seed adds instances for a service name without going through Register,
// simulating services the backend knows about but the registry cache does
// not.
func (b *FakeBackend) Seed(name string, instances ...discovery.InstanceMetadata) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.instances[name] = append(b.instances[name], instances...)
}

// Register records the service and hands back a generated id.
func (b *FakeBackend) Register(_ context.Context, info discovery.ServiceInfo) (*discovery.Registration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return nil, fmt.Errorf("backend unavailable")
	}

	id := info.ID
	if id == "" {
		id = uuid.NewString()
	}
	b.byID[id] = info.Name
	b.instances[info.Name] = append(b.instances[info.Name], discovery.InstanceMetadata{
		ServiceID: id,
		Name:      info.Name,
		Address:   info.Address,
		Port:      info.Port,
		Realm:     info.Realm,
		Tags:      info.Tags,
	})
	return &discovery.Registration{ID: id}, nil
}

// Discover returns the seeded or registered instances for a name.
func (b *FakeBackend) Discover(_ context.Context, serviceName string) ([]discovery.InstanceMetadata, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return nil, fmt.Errorf("backend unavailable")
	}
	return append([]discovery.InstanceMetadata(nil), b.instances[serviceName]...), nil
}

// Deregister removes every instance registered under the id.
func (b *FakeBackend) Deregister(_ context.Context, externalID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return fmt.Errorf("backend unavailable")
	}

	name, ok := b.byID[externalID]
	if !ok {
		return nil
	}
	delete(b.byID, externalID)

	kept := b.instances[name][:0]
	for _, instance := range b.instances[name] {
		if instance.ServiceID != externalID {
			kept = append(kept, instance)
		}
	}
	b.instances[name] = kept
	return nil
}

// Registered reports whether any instance of the named service is currently
// registered with the backend.
func (b *FakeBackend) Registered(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.instances[name]) > 0
}

var _ discovery.Backend = (*FakeBackend)(nil)

// CapturePublisher records every published event for later inspection.
type CapturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

// NewCapturePublisher creates an empty capturing publisher.
func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

// Publish appends the event to the capture buffer.
func (p *CapturePublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Close is a no-op.
func (p *CapturePublisher) Close() {}

// Events returns a snapshot of everything published so far.
func (p *CapturePublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

// Find returns the captured events matching entity and action.
func (p *CapturePublisher) Find(entity, action string) []events.Event {
	var matched []events.Event
	for _, event := range p.Events() {
		if event.Entity == entity && event.Action == action {
			matched = append(matched, event)
		}
	}
	return matched
}

var _ events.Publisher = (*CapturePublisher)(nil)
