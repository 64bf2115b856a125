package fulfillment

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Customers() Customers
	ProvisionLogs() ProvisionLogs
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Validate() error
	MustValidate()
}

type mngr struct {
	db            *bun.DB
	customers     Customers
	provisionLogs ProvisionLogs
}

// NewRepositoryManager builds the manager over a bun database handle.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:            db,
		customers:     NewCustomersRepository(db),
		provisionLogs: NewProvisionLogsRepository(db),
	}
}

func (m mngr) Customers() Customers {
	return m.customers
}

func (m mngr) ProvisionLogs() ProvisionLogs {
	return m.provisionLogs
}

func (m mngr) Validate() error {
	if m.customers == nil {
		return errors.New("repository customers should be initialized")
	}

	if m.provisionLogs == nil {
		return errors.New("repository provisionLogs should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// RegisterModels registers the persisted models with bun. Call it before
// relying on relations or fixtures.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*Customer)(nil), (*ProvisionLog)(nil))
}

// CreateTables creates the backing tables if missing. Intended for sqlite
// deployments and tests; production schemas are usually migrated externally.
func CreateTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Customer)(nil),
		(*ProvisionLog)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
