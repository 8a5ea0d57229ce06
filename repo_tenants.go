package provision

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tenants is the read surface over the store/retailer directory plus the
// writers for tenant associations created during provisioning.
type Tenants interface {
	GetStoreTx(ctx context.Context, tx bun.IDB, id int64) (*Store, error)
	GetRetailerTx(ctx context.Context, tx bun.IDB, id int64) (*Retailer, error)
	LinkStoreRepTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, storeID int64) (*StoreRep, error)
	LinkRetailerAdminTx(ctx context.Context, tx bun.IDB, retailerID int64, userID uuid.UUID) error
}

type tenants struct {
	db *bun.DB
}

var _ Tenants = (*tenants)(nil)

func NewTenantsRepository(db *bun.DB) Tenants {
	return &tenants{db: db}
}

func (t *tenants) GetStoreTx(ctx context.Context, tx bun.IDB, id int64) (*Store, error) {
	record := &Store{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"store_id": id,
				})
		}
		return nil, err
	}

	return record, nil
}

func (t *tenants) GetRetailerTx(ctx context.Context, tx bun.IDB, id int64) (*Retailer, error) {
	record := &Retailer{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) || isNoRows(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"retailer_id": id,
				})
		}
		return nil, err
	}

	return record, nil
}

func (t *tenants) LinkStoreRepTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, storeID int64) (*StoreRep, error) {
	rep := &StoreRep{
		ID:      uuid.New(),
		UserID:  userID,
		StoreID: storeID,
	}

	if _, err := tx.NewInsert().Model(rep).Exec(ctx); err != nil {
		return nil, err
	}

	return rep, nil
}

func (t *tenants) LinkRetailerAdminTx(ctx context.Context, tx bun.IDB, retailerID int64, userID uuid.UUID) error {
	link := &RetailerAdmin{
		ID:         uuid.New(),
		RetailerID: retailerID,
		UserID:     userID,
	}

	_, err := tx.NewInsert().
		Model(link).
		On("CONFLICT (retailer_id, user_id) DO NOTHING").
		Exec(ctx)

	return err
}
