// Package memory implements the repository interfaces in process memory.
// Used for tests and single-node development; the concurrency guarantees
// mirror the PostgreSQL implementation via a per-store mutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
	apperrors "github.com/utafrali/StoreRatingsGo/pkg/errors"
)

// AccountRepository is an in-memory repository.AccountRepository.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]domain.Account
}

// NewAccountRepository creates an empty in-memory account repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[uuid.UUID]domain.Account)}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return apperrors.Conflict("account", "email", a.Email)
		}
	}
	r.accounts[a.ID] = *a
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			account := a
			return &account, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return apperrors.NotFound("account", id.String())
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = time.Now().UTC()
	r.accounts[id] = a
	return nil
}

// SetOwnedStore binds an owner account to a store, mirroring what the
// PostgreSQL store repository does inside its create transaction. An account
// that already owns a store cannot be bound again.
func (r *AccountRepository) SetOwnedStore(id, storeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok || a.Role != domain.RoleStoreOwner {
		return apperrors.NotFound("account", id.String())
	}
	if a.OwnedStoreID != nil {
		return apperrors.ConflictMsg("account already owns a store")
	}
	a.OwnedStoreID = &storeID
	r.accounts[id] = a
	return nil
}

func (r *AccountRepository) List(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Account
	for _, a := range r.accounts {
		if filter.Role != "" && a.Role != filter.Role {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(a.Name), needle) &&
				!strings.Contains(strings.ToLower(a.Email), needle) {
				continue
			}
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	return pageSlice(matched, filter.Offset, filter.Limit), total, nil
}

func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.accounts)), nil
}

// StoreRepository is an in-memory repository.StoreRepository.
type StoreRepository struct {
	mu       sync.RWMutex
	stores   map[uuid.UUID]domain.Store
	accounts *AccountRepository
}

// NewStoreRepository creates an empty in-memory store repository. The
// account repository is needed to bind owners at creation time.
func NewStoreRepository(accounts *AccountRepository) *StoreRepository {
	return &StoreRepository{
		stores:   make(map[uuid.UUID]domain.Store),
		accounts: accounts,
	}
}

func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.stores {
		if existing.Slug == s.Slug {
			return apperrors.Conflict("store", "slug", s.Slug)
		}
	}

	if s.OwnerID != nil {
		if err := r.accounts.SetOwnedStore(*s.OwnerID, s.ID); err != nil {
			return err
		}
	}

	r.stores[s.ID] = *s
	return nil
}

func (r *StoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &s, nil
}

func (r *StoreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if s.Slug == slug {
			store := s
			return &store, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *StoreRepository) List(ctx context.Context, filter repository.StoreFilter) ([]domain.Store, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Store
	for _, s := range r.stores {
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(s.Name), needle) &&
				!strings.Contains(strings.ToLower(s.Address), needle) {
				continue
			}
		}
		matched = append(matched, s)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Name < matched[j].Name
	})

	total := int64(len(matched))
	return pageSlice(matched, filter.Offset, filter.Limit), total, nil
}

func (r *StoreRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.stores)), nil
}

// applyAggregate runs fn under the store repository's write lock so rating
// writes and aggregate updates are atomic per store.
func (r *StoreRepository) applyAggregate(id uuid.UUID, fn func(sum, count int64) (int64, int64)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[id]
	if !ok {
		return apperrors.NotFound("store", id.String())
	}
	s.RatingSum, s.RatingCount = fn(s.RatingSum, s.RatingCount)
	s.UpdatedAt = time.Now().UTC()
	r.stores[id] = s
	return nil
}

type ratingKey struct {
	accountID uuid.UUID
	storeID   uuid.UUID
}

// RatingRepository is an in-memory repository.RatingRepository. A per-store
// mutex serializes writers and readers touching the same store's ratings the
// way the PostgreSQL implementation's row lock does, so a rating row is never
// visible before its value lands in the aggregate.
type RatingRepository struct {
	mu      sync.RWMutex
	ratings map[ratingKey]domain.Rating

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex

	stores *StoreRepository
}

// NewRatingRepository creates an empty in-memory rating repository bound to
// a store repository for aggregate updates.
func NewRatingRepository(stores *StoreRepository) *RatingRepository {
	return &RatingRepository{
		ratings: make(map[ratingKey]domain.Rating),
		locks:   make(map[uuid.UUID]*sync.Mutex),
		stores:  stores,
	}
}

func (r *RatingRepository) storeLock(storeID uuid.UUID) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	lock, ok := r.locks[storeID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[storeID] = lock
	}
	return lock
}

func (r *RatingRepository) Submit(ctx context.Context, rating *domain.Rating) (*repository.RatingSubmitOutcome, error) {
	lock := r.storeLock(rating.StoreID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := r.stores.GetByID(ctx, rating.StoreID); err != nil {
		return nil, apperrors.NotFound("store", rating.StoreID.String())
	}

	key := ratingKey{accountID: rating.AccountID, storeID: rating.StoreID}
	outcome := &repository.RatingSubmitOutcome{}

	r.mu.Lock()
	existing, revised := r.ratings[key]
	r.ratings[key] = *rating
	r.mu.Unlock()

	var aggErr error
	if revised {
		outcome.Revised = true
		outcome.PreviousValue = existing.Value
		aggErr = r.stores.applyAggregate(rating.StoreID, func(sum, count int64) (int64, int64) {
			sum, count = domain.ApplyRevision(sum, count, existing.Value, rating.Value)
			outcome.RatingSum, outcome.RatingCount = sum, count
			return sum, count
		})
	} else {
		aggErr = r.stores.applyAggregate(rating.StoreID, func(sum, count int64) (int64, int64) {
			sum, count = domain.ApplyNew(sum, count, rating.Value)
			outcome.RatingSum, outcome.RatingCount = sum, count
			return sum, count
		})
	}
	if aggErr != nil {
		return nil, aggErr
	}

	return outcome, nil
}

func (r *RatingRepository) Get(ctx context.Context, accountID, storeID uuid.UUID) (*domain.Rating, error) {
	lock := r.storeLock(storeID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.ratings[ratingKey{accountID: accountID, storeID: storeID}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &rt, nil
}

func (r *RatingRepository) Delete(ctx context.Context, accountID, storeID uuid.UUID) (*repository.RatingDeleteOutcome, error) {
	lock := r.storeLock(storeID)
	lock.Lock()
	defer lock.Unlock()

	key := ratingKey{accountID: accountID, storeID: storeID}

	r.mu.Lock()
	existing, ok := r.ratings[key]
	if ok {
		delete(r.ratings, key)
	}
	r.mu.Unlock()

	if !ok {
		return nil, apperrors.NotFound("rating", accountID.String())
	}

	outcome := &repository.RatingDeleteOutcome{RemovedValue: existing.Value}
	err := r.stores.applyAggregate(storeID, func(sum, count int64) (int64, int64) {
		sum, count = domain.ApplyRemoval(sum, count, existing.Value)
		outcome.RatingSum, outcome.RatingCount = sum, count
		return sum, count
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

func (r *RatingRepository) ListByStore(ctx context.Context, storeID uuid.UUID, offset, limit int) ([]repository.StoreRating, int64, error) {
	lock := r.storeLock(storeID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	var matched []repository.StoreRating
	for key, rt := range r.ratings {
		if key.storeID == storeID {
			matched = append(matched, repository.StoreRating{Rating: rt})
		}
	}
	r.mu.RUnlock()

	for i := range matched {
		if acc, err := r.stores.accounts.GetByID(ctx, matched[i].AccountID); err == nil {
			matched[i].RaterName = acc.Name
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := int64(len(matched))
	return pageSlice(matched, offset, limit), total, nil
}

func (r *RatingRepository) Distribution(ctx context.Context, storeID uuid.UUID) (map[int]int64, error) {
	lock := r.storeLock(storeID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	dist := make(map[int]int64, domain.RatingMax)
	for v := domain.RatingMin; v <= domain.RatingMax; v++ {
		dist[v] = 0
	}
	for key, rt := range r.ratings {
		if key.storeID == storeID {
			dist[rt.Value]++
		}
	}
	return dist, nil
}

func (r *RatingRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.ratings)), nil
}

func pageSlice[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
