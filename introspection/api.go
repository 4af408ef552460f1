// Package introspection implements the simulation introspection protocol:
// manager discovery, the signal catalog, and server-tracked filters that
// select which signals a consumer receives telemetry for.
//
// The Client talks to remote managers over NATS request-reply, with manager
// presence and catalogs kept in JetStream KV buckets. The Manager is the
// server side; it registers signals, answers filter requests, and publishes
// filtered snapshots to each filter's notify subject.
package introspection

import (
	"context"
	"time"

	"github.com/c360/plotstream/telemetry"
)

// Unsubscriber terminates a snapshot subscription.
// *nats.Subscription satisfies this directly.
type Unsubscriber interface {
	Unsubscribe() error
}

// API is the introspection control surface consumed by the curve handler.
// Implementations must be safe for concurrent use.
type API interface {
	// WaitForManagers blocks, bounded by timeout, until at least one manager
	// is present. Returns manager ids in lexical order. An expired wait
	// returns an empty slice and no error; transport failures return an error.
	WaitForManagers(ctx context.Context, timeout time.Duration) ([]string, error)

	// IsRegistered reports whether the signal is in the manager's catalog.
	IsRegistered(ctx context.Context, managerID, signalID string) (bool, error)

	// Items returns a snapshot of the manager's catalog in lexical order.
	Items(ctx context.Context, managerID string) ([]string, error)

	// NewFilter creates a server-tracked filter with the given membership and
	// returns its id and the subject snapshots for it are published on.
	NewFilter(ctx context.Context, managerID string, ids []string) (filterID, notifySubject string, err error)

	// UpdateFilter replaces the filter's entire membership set.
	UpdateFilter(ctx context.Context, managerID, filterID string, ids []string) error

	// RemoveFilter deletes the filter; the manager stops publishing to its
	// notify subject.
	RemoveFilter(ctx context.Context, managerID, filterID string) error

	// SubscribeUpdates delivers each snapshot published on a filter's notify
	// subject, in publication order, one at a time.
	SubscribeUpdates(subject string, fn func(*telemetry.Snapshot)) (Unsubscriber, error)
}
