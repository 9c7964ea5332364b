// Package event publishes domain events to Kafka.
package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/StoreRatingsGo/internal/domain"
	"github.com/utafrali/StoreRatingsGo/internal/repository"
)

// Event types published by the service.
const (
	TypeAccountRegistered = "storeratings.account.registered"
	TypeStoreCreated      = "storeratings.store.created"
	TypeRatingSubmitted   = "storeratings.rating.submitted"
	TypeRatingRevised     = "storeratings.rating.revised"
	TypeRatingDeleted     = "storeratings.rating.deleted"
)

// Publisher abstracts the Kafka producer for services and tests.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// Producer emits domain events. Publish failures are logged, never
// propagated: events are a side channel and must not fail the request that
// triggered them.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a domain event producer.
func NewProducer(publisher Publisher, l *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: l}
}

// AccountRegistered emits an event for a newly registered account.
func (p *Producer) AccountRegistered(ctx context.Context, account *domain.Account) {
	p.publish(ctx, TypeAccountRegistered, account.ID.String(), map[string]any{
		"account_id": account.ID.String(),
		"email":      account.Email,
		"role":       account.Role.String(),
	})
}

// StoreCreated emits an event for a newly created store.
func (p *Producer) StoreCreated(ctx context.Context, store *domain.Store) {
	payload := map[string]any{
		"store_id": store.ID.String(),
		"name":     store.Name,
		"slug":     store.Slug,
	}
	if store.OwnerID != nil {
		payload["owner_id"] = store.OwnerID.String()
	}
	p.publish(ctx, TypeStoreCreated, store.ID.String(), payload)
}

// RatingSubmitted emits a submitted or revised event depending on the
// outcome, keyed by store so per-store ordering is preserved.
func (p *Producer) RatingSubmitted(ctx context.Context, rating *domain.Rating, outcome *repository.RatingSubmitOutcome) {
	eventType := TypeRatingSubmitted
	payload := map[string]any{
		"account_id":   rating.AccountID.String(),
		"store_id":     rating.StoreID.String(),
		"value":        rating.Value,
		"rating_sum":   outcome.RatingSum,
		"rating_count": outcome.RatingCount,
	}
	if outcome.Revised {
		eventType = TypeRatingRevised
		payload["previous_value"] = outcome.PreviousValue
	}
	p.publish(ctx, eventType, rating.StoreID.String(), payload)
}

// RatingDeleted emits an event for a removed rating.
func (p *Producer) RatingDeleted(ctx context.Context, accountID, storeID string, outcome *repository.RatingDeleteOutcome) {
	p.publish(ctx, TypeRatingDeleted, storeID, map[string]any{
		"account_id":    accountID,
		"store_id":      storeID,
		"removed_value": outcome.RemovedValue,
		"rating_sum":    outcome.RatingSum,
		"rating_count":  outcome.RatingCount,
	})
}

func (p *Producer) publish(ctx context.Context, eventType, key string, payload any) {
	if err := p.publisher.Publish(ctx, eventType, key, payload); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("event_type", eventType),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
