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

type ProvisionStoreRepMessage struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	StoreID   int64  `json:"store_id"`
	Telesales bool   `json:"telesales"`
	UseHashid bool
}

func (e ProvisionStoreRepMessage) Type() string { return "user.provision_store_rep" }

// Validate will run validation rules
func (e ProvisionStoreRepMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Username, validation.Required, validation.Length(1, 150)),
			validation.Field(&e.Password, validation.Required),
			validation.Field(&e.Email, validation.Required, is.Email),
			validation.Field(&e.Phone, validation.By(optionalPhone)),
			validation.Field(&e.StoreID, validation.Required),
		)
	}, "invalid store rep provisioning request")
}

// ProvisionStoreRepHandler creates a store-scoped staff account: identity,
// password history entry, STORE_REP role, optional telesales group, and the
// store association. All of it in one transaction.
type ProvisionStoreRepHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

// NewProvisionStoreRepHandler creates a handler with sane defaults.
func NewProvisionStoreRepHandler(repo RepositoryManager) *ProvisionStoreRepHandler {
	return &ProvisionStoreRepHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit provisioning events.
func (h *ProvisionStoreRepHandler) WithActivitySink(sink ActivitySink) *ProvisionStoreRepHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ProvisionStoreRepHandler) WithLogger(logger Logger) *ProvisionStoreRepHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ProvisionStoreRepHandler) Execute(ctx context.Context, event ProvisionStoreRepMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during store rep provisioning",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ProvisionStoreRepHandler) execute(ctx context.Context, event ProvisionStoreRepMessage) error {
	if verr := event.Validate(); verr != nil {
		return verr
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := h.repo.Users().ExistsTx(ctx, tx, event.Username)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username availability")
		}
		if exists {
			return conflictUsername(opStoreRep, event.Username)
		}

		store, err := h.repo.Tenants().GetStoreTx(ctx, tx, event.StoreID)
		if err != nil {
			if IsNotFound(err) {
				return notFoundStore(opStoreRep, event.StoreID)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up store")
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
				// lost a concurrent insert race for the same username
				return conflictUsername(opStoreRep, event.Username)
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if _, err = h.repo.PasswordHistory().AppendTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record password history")
		}

		if err := assignRoleTx(ctx, tx, h.repo, opStoreRep, user, RoleStoreRep); err != nil {
			return err
		}

		if event.Telesales {
			group, err := h.repo.Groups().GetByNameTx(ctx, tx, GroupTelesalesAgent)
			if err != nil {
				if IsNotFound(err) {
					return notFoundGroup(opStoreRep, GroupTelesalesAgent)
				}
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up telesales group")
			}

			if err := h.repo.Groups().AddMemberTx(ctx, tx, user.ID, group.ID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add telesales group membership")
			}
		}

		if _, err := h.repo.Tenants().LinkStoreRepTx(ctx, tx, user.ID, store.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to link user to store")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "store rep provisioning transaction failed")
	}

	h.recordActivity(ctx, user, event)

	return nil
}

func (h *ProvisionStoreRepHandler) recordActivity(ctx context.Context, user *User, event ProvisionStoreRepMessage) {
	evt := ActivityEvent{
		EventType: ActivityEventStoreRepProvisioned,
		UserID:    user.ID.String(),
		Username:  user.Username,
		Role:      RoleStoreRep,
		Metadata: map[string]any{
			"store_id":  event.StoreID,
			"telesales": event.Telesales,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, evt); err != nil {
		h.logger.Warn("activity sink error during store rep provisioning: %v", err)
	}
}
