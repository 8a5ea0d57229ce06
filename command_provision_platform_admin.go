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

type ProvisionPlatformAdminMessage struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	// ForceUpdate makes an existing username an update (password rotation)
	// instead of a conflict. NewProvisionPlatformAdminMessage sets it; a
	// zero-value message demands a fresh username.
	ForceUpdate bool `json:"force_update"`
	UseHashid   bool
}

// NewProvisionPlatformAdminMessage builds a message with the usual
// maintenance semantics: re-running for an existing admin rotates their
// credentials.
func NewProvisionPlatformAdminMessage(username, password, email string) ProvisionPlatformAdminMessage {
	return ProvisionPlatformAdminMessage{
		Username:    username,
		Password:    password,
		Email:       email,
		ForceUpdate: true,
	}
}

func (e ProvisionPlatformAdminMessage) Type() string { return "user.provision_platform_admin" }

// Validate will run validation rules
func (e ProvisionPlatformAdminMessage) Validate() *goerrors.Error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Username, validation.Required, validation.Length(1, 150)),
			validation.Field(&e.Password, validation.Required),
			validation.Field(&e.Email, validation.Required, is.Email),
		)
	}, "invalid platform admin provisioning request")
}

// ProvisionPlatformAdminHandler is the idempotent upsert of a platform
// administrator: create if absent, rotate credentials if present (and
// ForceUpdate allows it), then converge role, template groups, and admin
// flags. Re-running with the same message is safe; the only strictly
// additive effect is one password history entry per call.
type ProvisionPlatformAdminHandler struct {
	repo          RepositoryManager
	activity      ActivitySink
	logger        Logger
	templateAdmin string
}

// NewProvisionPlatformAdminHandler creates a handler with sane defaults.
func NewProvisionPlatformAdminHandler(repo RepositoryManager) *ProvisionPlatformAdminHandler {
	return &ProvisionPlatformAdminHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit provisioning events.
func (h *ProvisionPlatformAdminHandler) WithActivitySink(sink ActivitySink) *ProvisionPlatformAdminHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ProvisionPlatformAdminHandler) WithLogger(logger Logger) *ProvisionPlatformAdminHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithTemplateAdmin names the account whose group memberships are cloned
// onto every provisioned platform admin. Empty skips cloning; a configured
// name that does not resolve is a hard NotFound.
func (h *ProvisionPlatformAdminHandler) WithTemplateAdmin(username string) *ProvisionPlatformAdminHandler {
	h.templateAdmin = username
	return h
}

func (h *ProvisionPlatformAdminHandler) Execute(ctx context.Context, event ProvisionPlatformAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during platform admin provisioning",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ProvisionPlatformAdminHandler) execute(ctx context.Context, event ProvisionPlatformAdminMessage) error {
	if verr := event.Validate(); verr != nil {
		return verr
	}

	user := &User{}
	created := false

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		existing, err := h.repo.Users().GetByUsernameTx(ctx, tx, event.Username)
		if err != nil && !IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user")
		}

		if existing == nil {
			user.Username = event.Username
			user.PasswordHash = hash
			user.Email = event.Email
			if event.UseHashid {
				if id, err := hashid.NewUUID(event.Username); err == nil {
					user.ID = id
				}
			}

			record, inserted, err := h.repo.Users().CreateIgnoreConflictTx(ctx, tx, user)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
			}

			if inserted {
				user = record
				created = true
			} else {
				// lost a concurrent create race for the same username:
				// the row exists now, take the update branch below
				existing, err = h.repo.Users().GetByUsernameTx(ctx, tx, event.Username)
				if err != nil {
					return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to re-read user after insert race")
				}
			}
		}

		if existing != nil {
			if !event.ForceUpdate {
				return conflictUsername(opPlatformAdmin, event.Username)
			}

			user, err = h.repo.Users().UpdateCredentialsTx(ctx, tx, existing.ID, hash, event.Email)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to rotate credentials")
			}

			profile, err := h.repo.Profiles().ResolveTx(ctx, tx, user)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve user profile")
			}

			if _, err := h.repo.Profiles().SetEmailLowerTx(ctx, tx, profile, event.Email); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update normalized email")
			}
		}

		if _, err = h.repo.PasswordHistory().AppendTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record password history")
		}

		if err := assignRoleTx(ctx, tx, h.repo, opPlatformAdmin, user, RolePlatformAdmin); err != nil {
			return err
		}

		if h.templateAdmin != "" {
			tmpl, err := h.repo.Users().GetByUsernameTx(ctx, tx, h.templateAdmin)
			if err != nil {
				if IsNotFound(err) {
					return notFoundTemplateAdmin(opPlatformAdmin, h.templateAdmin)
				}
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up template admin")
			}

			if err := h.repo.Groups().CloneMembershipsTx(ctx, tx, tmpl.ID, user.ID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clone template admin groups")
			}
		}

		if user, err = h.repo.Users().SetAdminFlagsTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set admin flags")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "platform admin provisioning transaction failed")
	}

	h.recordActivity(ctx, user, created)

	return nil
}

func (h *ProvisionPlatformAdminHandler) recordActivity(ctx context.Context, user *User, created bool) {
	eventType := ActivityEventPlatformAdminUpdated
	if created {
		eventType = ActivityEventPlatformAdminCreated
	}

	evt := ActivityEvent{
		EventType:  eventType,
		UserID:     user.ID.String(),
		Username:   user.Username,
		Role:       RolePlatformAdmin,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, evt); err != nil {
		h.logger.Warn("activity sink error during platform admin provisioning: %v", err)
	}
}
