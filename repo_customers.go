package fulfillment

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Customers persists tenant records. Writes are last-write-wins; callers that
// need atomicity across calls use the Tx variants.
type Customers interface {
	GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*Customer, error)
	GetByTenantIDTx(ctx context.Context, tx bun.IDB, tenantID uuid.UUID) (*Customer, error)
	Create(ctx context.Context, record *Customer) (*Customer, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Customer) (*Customer, error)
	Update(ctx context.Context, record *Customer) (*Customer, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *Customer) (*Customer, error)
}

type customers struct {
	db *bun.DB
}

var _ Customers = (*customers)(nil)

// NewCustomersRepository returns the bun-backed Customers repository.
func NewCustomersRepository(db *bun.DB) Customers {
	return &customers{db: db}
}

func (r *customers) GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*Customer, error) {
	return r.GetByTenantIDTx(ctx, r.db, tenantID)
}

func (r *customers) GetByTenantIDTx(ctx context.Context, tx bun.IDB, tenantID uuid.UUID) (*Customer, error) {
	record := &Customer{}
	err := tx.NewSelect().
		Model(record).
		Where(`"cst"."tenant_id" = ?`, tenantID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound.Clone().WithMetadata(map[string]any{
				"tenant_id": tenantID.String(),
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load customer record")
	}
	return record, nil
}

func (r *customers) Create(ctx context.Context, record *Customer) (*Customer, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *customers) CreateTx(ctx context.Context, tx bun.IDB, record *Customer) (*Customer, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert customer record")
	}
	return record, nil
}

func (r *customers) Update(ctx context.Context, record *Customer) (*Customer, error) {
	return r.UpdateTx(ctx, r.db, record)
}

func (r *customers) UpdateTx(ctx context.Context, tx bun.IDB, record *Customer) (*Customer, error) {
	now := time.Now()
	record.UpdatedAt = &now
	if _, err := tx.NewUpdate().
		Model(record).
		Column("licenses", "active", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update customer record")
	}
	return record, nil
}
