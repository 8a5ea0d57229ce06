package provision

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Groups is the permission-group registry. Membership is a set: AddMemberTx
// is idempotent and CloneMembershipsTx only ever adds missing rows.
type Groups interface {
	GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Group, error)
	AddMemberTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) error
	GroupsOfTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*Group, error)
	CloneMembershipsTx(ctx context.Context, tx bun.IDB, fromUserID, toUserID uuid.UUID) error
}

type groups struct {
	db *bun.DB
}

var _ Groups = (*groups)(nil)

func NewGroupsRepository(db *bun.DB) Groups {
	return &groups{db: db}
}

func (g *groups) GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Group, error) {
	record := &Group{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"group": name,
				})
		}
		return nil, err
	}

	return record, nil
}

func (g *groups) AddMemberTx(ctx context.Context, tx bun.IDB, userID, groupID uuid.UUID) error {
	membership := &GroupMembership{
		ID:      uuid.New(),
		UserID:  userID,
		GroupID: groupID,
	}

	_, err := tx.NewInsert().
		Model(membership).
		On("CONFLICT (user_id, group_id) DO NOTHING").
		Exec(ctx)

	return err
}

func (g *groups) GroupsOfTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*Group, error) {
	var records []*Group
	err := tx.NewSelect().
		Model(&records).
		Join("JOIN user_groups AS ug ON ug.group_id = grp.id").
		Where("ug.user_id = ?", userID).
		Order("grp.name ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (g *groups) CloneMembershipsTx(ctx context.Context, tx bun.IDB, fromUserID, toUserID uuid.UUID) error {
	source, err := g.GroupsOfTx(ctx, tx, fromUserID)
	if err != nil {
		return err
	}

	for _, grp := range source {
		if err := g.AddMemberTx(ctx, tx, toUserID, grp.ID); err != nil {
			return err
		}
	}

	return nil
}
