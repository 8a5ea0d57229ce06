package provision

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type ProvisionRetailerAdminMessage struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	RetailerID int64  `json:"retailer_id"`
	UseHashid  bool
}

func (e ProvisionRetailerAdminMessage) Type() string { return "user.provision_retailer_admin" }

// Validate will run validation rules
func (e ProvisionRetailerAdminMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Username, validation.Required, validation.Length(1, 150)),
			validation.Field(&e.Password, validation.Required),
			validation.Field(&e.Email, validation.Required, is.Email),
			validation.Field(&e.Phone, validation.By(optionalPhone)),
			validation.Field(&e.RetailerID, validation.Required),
		)
	}, "invalid retailer admin provisioning request")
}

// ProvisionRetailerAdminHandler creates a retailer-level admin account.
//
// A retailer id that does not resolve is a soft failure: the account is
// still created, just without a tenant association. Product has not settled
// whether that should be a hard error, so the behavior is both configurable
// (WithStrictRetailerLink) and observable (ActivityEventRetailerLinkSkipped
// fires every time the soft path is taken).
type ProvisionRetailerAdminHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	strict   bool
}

// NewProvisionRetailerAdminHandler creates a handler with sane defaults.
func NewProvisionRetailerAdminHandler(repo RepositoryManager) *ProvisionRetailerAdminHandler {
	return &ProvisionRetailerAdminHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit provisioning events.
func (h *ProvisionRetailerAdminHandler) WithActivitySink(sink ActivitySink) *ProvisionRetailerAdminHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ProvisionRetailerAdminHandler) WithLogger(logger Logger) *ProvisionRetailerAdminHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithStrictRetailerLink turns the missing-retailer soft failure into a
// hard NotFound that rolls back the whole operation.
func (h *ProvisionRetailerAdminHandler) WithStrictRetailerLink(strict bool) *ProvisionRetailerAdminHandler {
	h.strict = strict
	return h
}

func (h *ProvisionRetailerAdminHandler) Execute(ctx context.Context, event ProvisionRetailerAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during retailer admin provisioning",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ProvisionRetailerAdminHandler) execute(ctx context.Context, event ProvisionRetailerAdminMessage) error {
	if verr := event.Validate(); verr != nil {
		return verr
	}

	user := &User{}
	linkSkipped := false

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := h.repo.Users().ExistsTx(ctx, tx, event.Username)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
		}
		if exists {
			return conflictUsername(opRetailerAdmin, event.Username)
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Username = event.Username
		user.PasswordHash = hash
		user.Email = event.Email
		user.Phone = event.Phone
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Username); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if isUniqueViolation(err) {
				return conflictUsername(opRetailerAdmin, event.Username)
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if _, err = h.repo.PasswordHistory().AppendTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record password history")
		}

		if err := assignRoleTx(ctx, tx, h.repo, opRetailerAdmin, user, RoleRetailerAdmin); err != nil {
			return err
		}

		retailer, err := h.repo.Tenants().GetRetailerTx(ctx, tx, event.RetailerID)
		if err != nil {
			if !IsNotFound(err) {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up retailer")
			}
			if h.strict {
				return notFoundRetailer(opRetailerAdmin, event.RetailerID)
			}
			// soft failure: account exists, no tenant association
			linkSkipped = true
			return nil
		}

		if err := h.repo.Tenants().LinkRetailerAdminTx(ctx, tx, retailer.ID, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to link user to retailer")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "retailer admin provisioning transaction failed")
	}

	if linkSkipped {
		h.logger.Warn("retailer %d not found, %s provisioned without tenant association", event.RetailerID, event.Username)
	}

	h.recordActivity(ctx, user, event, linkSkipped)

	return nil
}

func (h *ProvisionRetailerAdminHandler) recordActivity(ctx context.Context, user *User, event ProvisionRetailerAdminMessage, linkSkipped bool) {
	sink := normalizeActivitySink(h.activity)

	evt := ActivityEvent{
		EventType: ActivityEventRetailerAdminProvisioned,
		UserID:    user.ID.String(),
		Username:  user.Username,
		Role:      RoleRetailerAdmin,
		Metadata: map[string]any{
			"retailer_id": event.RetailerID,
		},
		OccurredAt: time.Now(),
	}

	if err := sink.Record(ctx, evt); err != nil {
		h.logger.Warn("activity sink error during retailer admin provisioning: %v", err)
	}

	if !linkSkipped {
		return
	}

	skip := ActivityEvent{
		EventType: ActivityEventRetailerLinkSkipped,
		UserID:    user.ID.String(),
		Username:  user.Username,
		Role:      RoleRetailerAdmin,
		Metadata: map[string]any{
			"retailer_id": event.RetailerID,
		},
		OccurredAt: time.Now(),
	}

	if err := sink.Record(ctx, skip); err != nil {
		h.logger.Warn("activity sink error recording skipped retailer link: %v", err)
	}
}
