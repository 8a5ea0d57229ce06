package provision

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PasswordHistory is the append-only audit ledger. AppendTx writes exactly
// one entry per password set; nothing here updates or deletes.
type PasswordHistory interface {
	AppendTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, passwordHash string) (*PasswordHistoryEntry, error)
	CountForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int, error)
	ListForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*PasswordHistoryEntry, error)
}

type passwordHistory struct {
	repository.Repository[*PasswordHistoryEntry]
	db *bun.DB
}

var _ PasswordHistory = (*passwordHistory)(nil)

func NewPasswordHistoryRepository(db *bun.DB) PasswordHistory {
	repo := repository.NewRepository[*PasswordHistoryEntry](db, repository.ModelHandlers[*PasswordHistoryEntry]{
		NewRecord: func() *PasswordHistoryEntry { return &PasswordHistoryEntry{} },
		GetID: func(e *PasswordHistoryEntry) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *PasswordHistoryEntry, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
	})

	return &passwordHistory{
		Repository: repo,
		db:         db,
	}
}

func (p *passwordHistory) AppendTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, passwordHash string) (*PasswordHistoryEntry, error) {
	entry := &PasswordHistoryEntry{
		ID:           uuid.New(),
		UserID:       userID,
		PasswordHash: passwordHash,
	}

	return p.Repository.CreateTx(ctx, tx, entry)
}

func (p *passwordHistory) CountForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int, error) {
	return tx.NewSelect().
		Model((*PasswordHistoryEntry)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Count(ctx)
}

func (p *passwordHistory) ListForUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*PasswordHistoryEntry, error) {
	var entries []*PasswordHistoryEntry
	err := tx.NewSelect().
		Model(&entries).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return entries, nil
}
