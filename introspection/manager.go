package introspection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360/plotstream/component"
	"github.com/c360/plotstream/errors"
	"github.com/c360/plotstream/natsclient"
	"github.com/c360/plotstream/pkg/timestamp"
	"github.com/c360/plotstream/telemetry"
)

// Manager is the server side of the introspection protocol. A simulation
// registers its addressable signals here; consumers create filters against
// the catalog and receive filtered snapshots on each filter's notify subject.
type Manager struct {
	id     string
	nc     *natsclient.Client
	logger *component.Logger

	kvManagers *natsclient.KVStore
	kvCatalog  *natsclient.KVStore

	mu      sync.RWMutex
	items   map[string]struct{}
	filters map[string]*filterState
	state   component.State
	subs    []*nats.Subscription
}

// filterState is one server-tracked filter
type filterState struct {
	id      string
	notify  string
	members map[string]struct{}
}

// NewManager creates a manager with the given id; an empty id gets a
// generated UUID.
func NewManager(id string, nc *natsclient.Client, logger *slog.Logger) *Manager {
	if id == "" {
		id = uuid.NewString()
	}
	return &Manager{
		id:      id,
		nc:      nc,
		logger:  component.NewLogger("introspection-manager", nc.Conn(), logger),
		items:   make(map[string]struct{}),
		filters: make(map[string]*filterState),
		state:   component.StateCreated,
	}
}

var _ component.LifecycleComponent = (*Manager)(nil)

// ID returns the manager id.
func (m *Manager) ID() string { return m.id }

// Meta implements component.LifecycleComponent.
func (m *Manager) Meta() component.Metadata {
	return component.Metadata{
		Name:        "introspection-manager",
		Type:        "manager",
		Description: "Serves the signal catalog and filtered telemetry snapshots",
		Version:     "1.0.0",
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() component.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Initialize opens the KV buckets.
func (m *Manager) Initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kvManagers, err := m.nc.EnsureKVStore(ctx, ManagersBucket)
	if err != nil {
		return errors.WrapFatal(err, "Manager", "Initialize", "open managers bucket")
	}
	kvCatalog, err := m.nc.EnsureKVStore(ctx, CatalogBucket)
	if err != nil {
		return errors.WrapFatal(err, "Manager", "Initialize", "open catalog bucket")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.kvManagers = kvManagers
	m.kvCatalog = kvCatalog
	m.state = component.StateInitialized
	return nil
}

// Start announces the manager and subscribes to its filter request subjects.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state == component.StateStarted {
		m.mu.Unlock()
		return errors.ErrAlreadyStarted
	}
	if m.state != component.StateInitialized {
		m.mu.Unlock()
		return errors.ErrNotStarted
	}
	m.mu.Unlock()

	handlers := map[string]nats.MsgHandler{
		newFilterSubject(m.id):    m.handleNewFilter,
		updateFilterSubject(m.id): m.handleUpdateFilter,
		removeFilterSubject(m.id): m.handleRemoveFilter,
	}

	var subs []*nats.Subscription
	for subject, handler := range handlers {
		sub, err := m.nc.Subscribe(subject, handler)
		if err != nil {
			return errors.WrapFatal(err, "Manager", "Start", "subscribe filter subject")
		}
		subs = append(subs, sub)
	}

	record, err := json.Marshal(managerRecord{
		ID:         m.id,
		Registered: timestamp.Format(timestamp.Now()),
	})
	if err != nil {
		return errors.Wrap(err, "Manager", "Start", "encode registration")
	}
	if _, err := m.kvManagers.Put(ctx, m.id, record); err != nil {
		return errors.WrapFatal(err, "Manager", "Start", "announce manager")
	}
	if err := m.publishCatalog(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.subs = subs
	m.state = component.StateStarted
	m.mu.Unlock()

	m.logger.Info("introspection manager started", "manager_id", m.id)
	return nil
}

// Stop withdraws the manager registration and drops its subscriptions.
func (m *Manager) Stop(timeout time.Duration) error {
	m.mu.Lock()
	if m.state != component.StateStarted {
		m.mu.Unlock()
		return errors.ErrNotStarted
	}
	subs := m.subs
	m.subs = nil
	m.state = component.StateStopped
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := m.kvManagers.Delete(ctx, m.id); err != nil {
		m.logger.Warn("failed to withdraw manager registration", "error", err)
	}
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			m.logger.Warn("failed to drain subscription", "error", err)
		}
	}
	return nil
}

// Register adds signals to the catalog and republishes it.
func (m *Manager) Register(ctx context.Context, signalIDs ...string) error {
	m.mu.Lock()
	for _, id := range signalIDs {
		m.items[id] = struct{}{}
	}
	m.mu.Unlock()
	return m.publishCatalog(ctx)
}

// Unregister removes signals from the catalog and republishes it.
func (m *Manager) Unregister(ctx context.Context, signalIDs ...string) error {
	m.mu.Lock()
	for _, id := range signalIDs {
		delete(m.items, id)
	}
	m.mu.Unlock()
	return m.publishCatalog(ctx)
}

// publishCatalog writes the catalog to the catalog bucket.
func (m *Manager) publishCatalog(ctx context.Context) error {
	m.mu.RLock()
	items := make([]string, 0, len(m.items))
	for id := range m.items {
		items = append(items, id)
	}
	m.mu.RUnlock()
	sort.Strings(items)

	data, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "Manager", "publishCatalog", "encode catalog")
	}
	if _, err := m.kvCatalog.Put(ctx, m.id, data); err != nil {
		return errors.WrapTransient(err, "Manager", "publishCatalog", "write catalog")
	}
	return nil
}

// Publish delivers a snapshot to every filter, reduced to each filter's
// membership. Filters with no matching params are skipped.
func (m *Manager) Publish(snapshot *telemetry.Snapshot) error {
	m.mu.RLock()
	filters := make([]*filterState, 0, len(m.filters))
	for _, f := range m.filters {
		filters = append(filters, f)
	}
	m.mu.RUnlock()

	for _, f := range filters {
		filtered := reduceSnapshot(snapshot, f.members)
		if len(filtered.Params) == 0 {
			continue
		}

		data, err := filtered.Encode()
		if err != nil {
			return errors.Wrap(err, "Manager", "Publish", "encode snapshot")
		}
		if err := m.nc.Publish(f.notify, data); err != nil {
			return errors.WrapTransient(err, "Manager", "Publish", "publish snapshot")
		}
	}
	return nil
}

// handleNewFilter services filter creation requests.
func (m *Manager) handleNewFilter(msg *nats.Msg) {
	var req newFilterRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		m.replyNewFilter(msg, newFilterReply{Error: "malformed request"})
		return
	}

	if err := m.validateMembers(req.IDs); err != nil {
		m.replyNewFilter(msg, newFilterReply{Error: err.Error()})
		return
	}

	f := &filterState{
		id:      uuid.NewString(),
		members: toSet(req.IDs),
	}
	f.notify = notifySubject(m.id, f.id)

	m.mu.Lock()
	m.filters[f.id] = f
	m.mu.Unlock()

	m.logger.Info("filter created", "filter_id", f.id, "members", len(req.IDs))
	m.replyNewFilter(msg, newFilterReply{OK: true, FilterID: f.id, NotifySubject: f.notify})
}

// handleUpdateFilter services full-membership replace requests.
func (m *Manager) handleUpdateFilter(msg *nats.Msg) {
	var req updateFilterRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		m.replyStatus(msg, statusReply{Error: "malformed request"})
		return
	}

	if err := m.validateMembers(req.IDs); err != nil {
		m.replyStatus(msg, statusReply{Error: err.Error()})
		return
	}

	m.mu.Lock()
	f, ok := m.filters[req.FilterID]
	if ok {
		f.members = toSet(req.IDs)
	}
	m.mu.Unlock()

	if !ok {
		m.replyStatus(msg, statusReply{Error: errors.ErrFilterNotFound.Error()})
		return
	}
	m.replyStatus(msg, statusReply{OK: true})
}

// handleRemoveFilter services filter deletion requests.
func (m *Manager) handleRemoveFilter(msg *nats.Msg) {
	var req removeFilterRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		m.replyStatus(msg, statusReply{Error: "malformed request"})
		return
	}

	m.mu.Lock()
	_, ok := m.filters[req.FilterID]
	delete(m.filters, req.FilterID)
	m.mu.Unlock()

	if !ok {
		m.replyStatus(msg, statusReply{Error: errors.ErrFilterNotFound.Error()})
		return
	}
	m.replyStatus(msg, statusReply{OK: true})
}

// validateMembers rejects filters naming signals outside the catalog.
func (m *Manager) validateMembers(ids []string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range ids {
		if _, ok := m.items[id]; !ok {
			return fmt.Errorf("%w: %s", errors.ErrSignalNotRegistered, id)
		}
	}
	return nil
}

func (m *Manager) replyNewFilter(msg *nats.Msg, reply newFilterReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		m.logger.Error("failed to encode filter reply", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		m.logger.Warn("failed to respond to filter request", "error", err)
	}
}

func (m *Manager) replyStatus(msg *nats.Msg, reply statusReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		m.logger.Error("failed to encode status reply", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		m.logger.Warn("failed to respond to filter request", "error", err)
	}
}

// reduceSnapshot keeps only the params a filter subscribed to, preserving
// the original param order.
func reduceSnapshot(snapshot *telemetry.Snapshot, members map[string]struct{}) telemetry.Snapshot {
	var filtered telemetry.Snapshot
	for _, p := range snapshot.Params {
		if _, ok := members[p.Name]; ok {
			filtered.Params = append(filtered.Params, p)
		}
	}
	return filtered
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
