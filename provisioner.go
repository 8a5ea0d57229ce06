package provision

import "context"

// Provisioner bundles the three provisioning operations behind one value
// with shared logging, audit sink, and policy configuration. Each operation
// stays an independent handler; this is convenience wiring for callers that
// provision from application code rather than a command bus.
type Provisioner struct {
	storeRep      *ProvisionStoreRepHandler
	retailerAdmin *ProvisionRetailerAdminHandler
	platformAdmin *ProvisionPlatformAdminHandler
}

// ProvisionerOption configures the shared handler set.
type ProvisionerOption func(*Provisioner)

// WithLogger sets the logger on all three handlers.
func WithLogger(logger Logger) ProvisionerOption {
	return func(p *Provisioner) {
		p.storeRep.WithLogger(logger)
		p.retailerAdmin.WithLogger(logger)
		p.platformAdmin.WithLogger(logger)
	}
}

// WithActivitySink sets the audit sink on all three handlers.
func WithActivitySink(sink ActivitySink) ProvisionerOption {
	return func(p *Provisioner) {
		p.storeRep.WithActivitySink(sink)
		p.retailerAdmin.WithActivitySink(sink)
		p.platformAdmin.WithActivitySink(sink)
	}
}

// WithTemplateAdmin names the account platform-admin provisioning clones
// group memberships from.
func WithTemplateAdmin(username string) ProvisionerOption {
	return func(p *Provisioner) {
		p.platformAdmin.WithTemplateAdmin(username)
	}
}

// WithStrictRetailerLink makes a missing retailer a hard error instead of
// the default soft failure.
func WithStrictRetailerLink(strict bool) ProvisionerOption {
	return func(p *Provisioner) {
		p.retailerAdmin.WithStrictRetailerLink(strict)
	}
}

// NewProvisioner creates the service facade over a repository manager.
func NewProvisioner(repo RepositoryManager, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		storeRep:      NewProvisionStoreRepHandler(repo),
		retailerAdmin: NewProvisionRetailerAdminHandler(repo),
		platformAdmin: NewProvisionPlatformAdminHandler(repo),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// ProvisionStoreRep creates a store-scoped staff account.
func (p *Provisioner) ProvisionStoreRep(ctx context.Context, msg ProvisionStoreRepMessage) error {
	return p.storeRep.Execute(ctx, msg)
}

// ProvisionRetailerAdmin creates a retailer-level admin account.
func (p *Provisioner) ProvisionRetailerAdmin(ctx context.Context, msg ProvisionRetailerAdminMessage) error {
	return p.retailerAdmin.Execute(ctx, msg)
}

// ProvisionPlatformAdmin creates or updates a platform administrator.
func (p *Provisioner) ProvisionPlatformAdmin(ctx context.Context, msg ProvisionPlatformAdminMessage) error {
	return p.platformAdmin.Execute(ctx, msg)
}
