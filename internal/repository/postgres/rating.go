package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	"github.com/utafrali/StoreRatingsGo/pkg/database"
	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
)

const ratingColumns = "account_id, store_id, value, comment, created_at, updated_at"

// RatingRepository implements repository.RatingRepository using PostgreSQL.
//
// Submit and Delete lock the store row with SELECT ... FOR UPDATE before
// touching the rating, so concurrent writers to the same store serialize and
// the aggregate (rating_sum, rating_count) always matches the rating rows.
type RatingRepository struct {
	db database.DBTX
}

// NewRatingRepository creates a PostgreSQL-backed rating repository.
func NewRatingRepository(db database.DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

// Submit inserts or revises the caller's rating for a store and updates the
// store aggregate in the same transaction.
func (r *RatingRepository) Submit(ctx context.Context, rating *domain.Rating) (*repository.RatingSubmitOutcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var sum, count int64
	err = tx.QueryRow(ctx,
		`SELECT rating_sum, rating_count FROM stores WHERE id = $1 FOR UPDATE`,
		rating.StoreID,
	).Scan(&sum, &count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store", rating.StoreID.String())
		}
		return nil, fmt.Errorf("lock store row: %w", err)
	}

	outcome := &repository.RatingSubmitOutcome{}

	var previous int
	err = tx.QueryRow(ctx,
		`SELECT value FROM ratings WHERE account_id = $1 AND store_id = $2`,
		rating.AccountID, rating.StoreID,
	).Scan(&previous)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx,
			`INSERT INTO ratings (account_id, store_id, value, comment, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			rating.AccountID, rating.StoreID, rating.Value, rating.Comment,
			rating.CreatedAt, rating.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert rating: %w", err)
		}
		sum, count = domain.ApplyNew(sum, count, rating.Value)

	case err != nil:
		return nil, fmt.Errorf("read existing rating: %w", err)

	default:
		_, err = tx.Exec(ctx,
			`UPDATE ratings SET value = $1, comment = $2, updated_at = $3
			 WHERE account_id = $4 AND store_id = $5`,
			rating.Value, rating.Comment, rating.UpdatedAt,
			rating.AccountID, rating.StoreID,
		)
		if err != nil {
			return nil, fmt.Errorf("update rating: %w", err)
		}
		sum, count = domain.ApplyRevision(sum, count, previous, rating.Value)
		outcome.Revised = true
		outcome.PreviousValue = previous
	}

	if _, err := tx.Exec(ctx,
		`UPDATE stores SET rating_sum = $1, rating_count = $2, updated_at = $3 WHERE id = $4`,
		sum, count, time.Now().UTC(), rating.StoreID,
	); err != nil {
		return nil, fmt.Errorf("update store aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	outcome.RatingSum = sum
	outcome.RatingCount = count
	return outcome, nil
}

// Get retrieves one account's rating of one store.
func (r *RatingRepository) Get(ctx context.Context, accountID, storeID uuid.UUID) (*domain.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE account_id = $1 AND store_id = $2`

	var rt domain.Rating
	err := r.db.QueryRow(ctx, query, accountID, storeID).Scan(
		&rt.AccountID,
		&rt.StoreID,
		&rt.Value,
		&rt.Comment,
		&rt.CreatedAt,
		&rt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan rating: %w", err)
	}

	return &rt, nil
}

// Delete removes a rating and reverses it out of the store aggregate in the
// same transaction.
func (r *RatingRepository) Delete(ctx context.Context, accountID, storeID uuid.UUID) (*repository.RatingDeleteOutcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var sum, count int64
	err = tx.QueryRow(ctx,
		`SELECT rating_sum, rating_count FROM stores WHERE id = $1 FOR UPDATE`,
		storeID,
	).Scan(&sum, &count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store", storeID.String())
		}
		return nil, fmt.Errorf("lock store row: %w", err)
	}

	var removed int
	err = tx.QueryRow(ctx,
		`DELETE FROM ratings WHERE account_id = $1 AND store_id = $2 RETURNING value`,
		accountID, storeID,
	).Scan(&removed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rating", accountID.String())
		}
		return nil, fmt.Errorf("delete rating: %w", err)
	}

	sum, count = domain.ApplyRemoval(sum, count, removed)

	if _, err := tx.Exec(ctx,
		`UPDATE stores SET rating_sum = $1, rating_count = $2, updated_at = $3 WHERE id = $4`,
		sum, count, time.Now().UTC(), storeID,
	); err != nil {
		return nil, fmt.Errorf("update store aggregate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &repository.RatingDeleteOutcome{
		RemovedValue: removed,
		RatingSum:    sum,
		RatingCount:  count,
	}, nil
}

// ListByStore returns a store's ratings with rater names, newest first, plus
// the total count.
func (r *RatingRepository) ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]repository.StoreRating, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM ratings WHERE store_id = $1`, storeID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ratings: %w", err)
	}

	query := `SELECT r.account_id, r.store_id, r.value, r.comment, r.created_at, r.updated_at, a.name
		FROM ratings r
		JOIN accounts a ON a.id = r.account_id
		WHERE r.store_id = $1
		ORDER BY r.updated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, storeID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []repository.StoreRating{}
	for rows.Next() {
		var rt repository.StoreRating
		if err := rows.Scan(
			&rt.AccountID,
			&rt.StoreID,
			&rt.Value,
			&rt.Comment,
			&rt.CreatedAt,
			&rt.UpdatedAt,
			&rt.RaterName,
		); err != nil {
			return nil, 0, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rating rows: %w", err)
	}

	return ratings, total, nil
}

// Distribution returns how many ratings a store has per value 1..5. Values
// with no ratings are present with a zero count.
func (r *RatingRepository) Distribution(ctx context.Context, storeID uuid.UUID) (map[int]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT value, count(*) FROM ratings WHERE store_id = $1 GROUP BY value`,
		storeID,
	)
	if err != nil {
		return nil, fmt.Errorf("rating distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[int]int64, domain.RatingMax)
	for v := domain.RatingMin; v <= domain.RatingMax; v++ {
		dist[v] = 0
	}

	for rows.Next() {
		var value int
		var count int64
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("scan distribution row: %w", err)
		}
		dist[value] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distribution rows: %w", err)
	}

	return dist, nil
}

// Count returns the total number of ratings across all stores.
func (r *RatingRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM ratings`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return total, nil
}
