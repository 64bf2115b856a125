package fulfillment

import (
	"context"
	"database/sql"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProvisionLogs persists the audit trail. Rows are inserted once in
// InProgress state and finalized exactly once; nothing deletes them.
type ProvisionLogs interface {
	Create(ctx context.Context, record *ProvisionLog) (*ProvisionLog, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *ProvisionLog) (*ProvisionLog, error)
	Finalize(ctx context.Context, id uuid.UUID, status OperationStatus) (*ProvisionLog, error)
	FinalizeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status OperationStatus) (*ProvisionLog, error)
	ListByDomain(ctx context.Context, domain string) ([]*ProvisionLog, error)
}

type provisionLogs struct {
	db *bun.DB
}

var _ ProvisionLogs = (*provisionLogs)(nil)

// NewProvisionLogsRepository returns the bun-backed ProvisionLogs repository.
func NewProvisionLogsRepository(db *bun.DB) ProvisionLogs {
	return &provisionLogs{db: db}
}

func (r *provisionLogs) Create(ctx context.Context, record *ProvisionLog) (*ProvisionLog, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *provisionLogs) CreateTx(ctx context.Context, tx bun.IDB, record *ProvisionLog) (*ProvisionLog, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = StatusInProgress
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert provision log row")
	}
	return record, nil
}

func (r *provisionLogs) Finalize(ctx context.Context, id uuid.UUID, status OperationStatus) (*ProvisionLog, error) {
	return r.FinalizeTx(ctx, r.db, id, status)
}

func (r *provisionLogs) FinalizeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status OperationStatus) (*ProvisionLog, error) {
	record := &ProvisionLog{}
	err := tx.NewSelect().
		Model(record).
		Where(`"plg"."id" = ?`, id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.New("provision log row not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound).
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load provision log row")
	}

	if err := record.Finalize(status); err != nil {
		return nil, err
	}

	if _, err := tx.NewUpdate().
		Model(record).
		Column("status").
		WherePK().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize provision log row")
	}
	return record, nil
}

func (r *provisionLogs) ListByDomain(ctx context.Context, domain string) ([]*ProvisionLog, error) {
	var records []*ProvisionLog
	err := r.db.NewSelect().
		Model(&records).
		Where(`"plg"."domain" = ?`, domain).
		Order("timestamp ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list provision log rows")
	}
	return records, nil
}
