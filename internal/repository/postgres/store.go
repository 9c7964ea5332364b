package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	"github.com/utafrali/StoreRatingsGo/pkg/database"
	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
)

const storeColumns = "id, name, slug, email, address, description, owner_id, rating_sum, rating_count, created_at, updated_at"

// StoreRepository implements repository.StoreRepository using PostgreSQL.
type StoreRepository struct {
	db database.DBTX
}

// NewStoreRepository creates a PostgreSQL-backed store repository.
func NewStoreRepository(db database.DBTX) *StoreRepository {
	return &StoreRepository{db: db}
}

// Create inserts a store. When an owner is set, the owner account is bound
// to the store in the same transaction so a partial registration cannot
// leave an owner without a store.
func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
		INSERT INTO stores (id, name, slug, email, address, description, owner_id, rating_sum, rating_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, $8, $9)`

	_, err = tx.Exec(ctx, insert,
		s.ID,
		s.Name,
		s.Slug,
		s.Email,
		s.Address,
		s.Description,
		s.OwnerID,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		// The partial unique index on owner_id is what actually enforces
		// one store per owner; two racing creates lose here, not in the
		// service-level pre-check.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			if pgErr.ConstraintName == "stores_owner_idx" {
				return apperrors.ConflictMsg("account already owns a store")
			}
			return apperrors.Conflict("store", "slug", s.Slug)
		}
		if isUniqueViolation(err) {
			return apperrors.Conflict("store", "slug", s.Slug)
		}
		return fmt.Errorf("insert store: %w", err)
	}

	if s.OwnerID != nil {
		ct, err := tx.Exec(ctx,
			`UPDATE accounts SET owned_store_id = $1, updated_at = $2
			 WHERE id = $3 AND role = $4 AND owned_store_id IS NULL`,
			s.ID, time.Now().UTC(), *s.OwnerID, domain.RoleStoreOwner,
		)
		if err != nil {
			return fmt.Errorf("bind store owner: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return r.classifyBindFailure(ctx, tx, *s.OwnerID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const uniqueViolationCode = "23505"

// classifyBindFailure explains a zero-row owner bind: either the account is
// missing or not a store owner, or it already holds a store.
func (r *StoreRepository) classifyBindFailure(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) error {
	var ownedStoreID *uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT owned_store_id FROM accounts WHERE id = $1 AND role = $2`,
		ownerID, domain.RoleStoreOwner,
	).Scan(&ownedStoreID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound("account", ownerID.String())
	}
	if err != nil {
		return fmt.Errorf("inspect owner account: %w", err)
	}
	return apperrors.ConflictMsg("account already owns a store")
}

// GetByID retrieves a store by its ID.
func (r *StoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`
	return r.scanStore(ctx, query, id)
}

// GetBySlug retrieves a store by its slug.
func (r *StoreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE slug = $1`
	return r.scanStore(ctx, query, slug)
}

// List returns stores matching the filter plus the total match count.
func (r *StoreRepository) List(ctx context.Context, filter repository.StoreFilter) ([]domain.Store, int64, error) {
	var args []any
	where := ""
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = " WHERE (name ILIKE $1 OR address ILIKE $1)"
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM stores`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stores: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	listQuery := fmt.Sprintf(
		`SELECT %s FROM stores%s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		storeColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	stores := []domain.Store{}
	for rows.Next() {
		var s domain.Store
		if err := scanStoreRow(rows, &s); err != nil {
			return nil, 0, fmt.Errorf("scan store row: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate store rows: %w", err)
	}

	return stores, total, nil
}

// Count returns the total number of stores.
func (r *StoreRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM stores`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count stores: %w", err)
	}
	return total, nil
}

func (r *StoreRepository) scanStore(ctx context.Context, query string, args ...any) (*domain.Store, error) {
	var s domain.Store

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&s.ID,
		&s.Name,
		&s.Slug,
		&s.Email,
		&s.Address,
		&s.Description,
		&s.OwnerID,
		&s.RatingSum,
		&s.RatingCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan store: %w", err)
	}

	return &s, nil
}

func scanStoreRow(rows pgx.Rows, s *domain.Store) error {
	return rows.Scan(
		&s.ID,
		&s.Name,
		&s.Slug,
		&s.Email,
		&s.Address,
		&s.Description,
		&s.OwnerID,
		&s.RatingSum,
		&s.RatingCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}
