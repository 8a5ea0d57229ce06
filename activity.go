package provision

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported provisioning event categories.
type ActivityEventType string

const (
	ActivityEventStoreRepProvisioned      ActivityEventType = "provision.store_rep.created"
	ActivityEventRetailerAdminProvisioned ActivityEventType = "provision.retailer_admin.created"
	ActivityEventPlatformAdminCreated     ActivityEventType = "provision.platform_admin.created"
	ActivityEventPlatformAdminUpdated     ActivityEventType = "provision.platform_admin.updated"
	// ActivityEventRetailerLinkSkipped is emitted every time retailer-admin
	// provisioning takes the soft-fail path and leaves the account without
	// a tenant association.
	ActivityEventRetailerLinkSkipped ActivityEventType = "provision.retailer.link_skipped"
)

// ActivityEvent captures audit-friendly information about a provisioning
// outcome.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Username   string
	Role       RoleName
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort; errors are logged, never propagated.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
