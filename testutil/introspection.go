// Package testutil provides in-memory fakes for testing PlotStream
// components without a NATS server: a fake introspection API with
// scriptable failures and a point-capturing curve.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/c360/plotstream/introspection"
	"github.com/c360/plotstream/telemetry"
)

// FakeIntrospection is an in-memory introspection.API. Snapshots published
// with Publish are delivered synchronously to subscribers, so tests need no
// waiting or polling.
type FakeIntrospection struct {
	mu sync.Mutex

	// Managers maps manager id to its catalog.
	Managers map[string][]string

	// Failure switches. A non-nil error makes the matching call fail.
	WaitErr      error
	NewFilterErr error
	UpdateErr    error
	SubscribeErr error

	// ItemsGate, when set, makes Items block until the channel is closed,
	// letting tests hold a caller mid-session-setup.
	ItemsGate chan struct{}

	filters      map[string]map[string]struct{}
	subscribers  map[string][]func(*telemetry.Snapshot)
	nextFilter   int
	unsubscribed int

	// Pushed records every full membership set sent via NewFilter or
	// UpdateFilter, in call order.
	Pushed [][]string
}

var _ introspection.API = (*FakeIntrospection)(nil)

// NewFakeIntrospection returns a fake with one manager and the given catalog.
func NewFakeIntrospection(managerID string, catalog ...string) *FakeIntrospection {
	return &FakeIntrospection{
		Managers:    map[string][]string{managerID: catalog},
		filters:     make(map[string]map[string]struct{}),
		subscribers: make(map[string][]func(*telemetry.Snapshot)),
	}
}

// WaitForManagers implements introspection.API.
func (f *FakeIntrospection) WaitForManagers(_ context.Context, _ time.Duration) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WaitErr != nil {
		return nil, f.WaitErr
	}
	ids := make([]string, 0, len(f.Managers))
	for id := range f.Managers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsRegistered implements introspection.API.
func (f *FakeIntrospection) IsRegistered(_ context.Context, managerID, signalID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.Managers[managerID] {
		if id == signalID {
			return true, nil
		}
	}
	return false, nil
}

// Items implements introspection.API.
func (f *FakeIntrospection) Items(_ context.Context, managerID string) ([]string, error) {
	f.mu.Lock()
	gate := f.ItemsGate
	items := make([]string, len(f.Managers[managerID]))
	copy(items, f.Managers[managerID])
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	sort.Strings(items)
	return items, nil
}

// NewFilter implements introspection.API.
func (f *FakeIntrospection) NewFilter(_ context.Context, managerID string, ids []string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NewFilterErr != nil {
		return "", "", f.NewFilterErr
	}
	f.nextFilter++
	filterID := fmt.Sprintf("filter-%d", f.nextFilter)
	f.filters[filterID] = toSet(ids)
	f.recordPush(ids)
	return filterID, "updates." + managerID + "." + filterID, nil
}

// UpdateFilter implements introspection.API.
func (f *FakeIntrospection) UpdateFilter(_ context.Context, _, filterID string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if _, ok := f.filters[filterID]; !ok {
		return fmt.Errorf("unknown filter %s", filterID)
	}
	f.filters[filterID] = toSet(ids)
	f.recordPush(ids)
	return nil
}

// RemoveFilter implements introspection.API.
func (f *FakeIntrospection) RemoveFilter(_ context.Context, _, filterID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.filters[filterID]; !ok {
		return fmt.Errorf("unknown filter %s", filterID)
	}
	delete(f.filters, filterID)
	return nil
}

// SubscribeUpdates implements introspection.API.
func (f *FakeIntrospection) SubscribeUpdates(subject string, fn func(*telemetry.Snapshot)) (introspection.Unsubscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	f.subscribers[subject] = append(f.subscribers[subject], fn)
	return &fakeSubscription{f: f}, nil
}

// Publish delivers a snapshot to every subscriber of every filter's notify
// subject, synchronously on the calling goroutine.
func (f *FakeIntrospection) Publish(snapshot *telemetry.Snapshot) {
	f.mu.Lock()
	var fns []func(*telemetry.Snapshot)
	for _, subs := range f.subscribers {
		fns = append(fns, subs...)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// LastPush returns the most recent full membership set pushed, sorted, or
// nil when nothing was pushed.
func (f *FakeIntrospection) LastPush() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Pushed) == 0 {
		return nil
	}
	return f.Pushed[len(f.Pushed)-1]
}

// FilterMembers returns the fake's view of a filter's membership, sorted.
func (f *FakeIntrospection) FilterMembers(filterID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := make([]string, 0, len(f.filters[filterID]))
	for id := range f.filters[filterID] {
		members = append(members, id)
	}
	sort.Strings(members)
	return members
}

func (f *FakeIntrospection) recordPush(ids []string) {
	push := make([]string, len(ids))
	copy(push, ids)
	sort.Strings(push)
	f.Pushed = append(f.Pushed, push)
}

// ActiveFilters returns how many filters the fake currently tracks.
func (f *FakeIntrospection) ActiveFilters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filters)
}

// Unsubscribed returns how many subscriptions have been torn down.
func (f *FakeIntrospection) Unsubscribed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

type fakeSubscription struct {
	f *FakeIntrospection
}

func (s *fakeSubscription) Unsubscribe() error {
	s.f.mu.Lock()
	s.f.unsubscribed++
	s.f.mu.Unlock()
	return nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
