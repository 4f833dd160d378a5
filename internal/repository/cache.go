package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// cachedTicketRepository is a read-through cache in front of another
// TicketRepository. GetByID serves from Redis when possible; every
// mutation drops the cached copy before delegating so stale reads cannot
// outlive a committed change. Cache failures degrade to the inner store.
type cachedTicketRepository struct {
	inner  TicketRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTicketRepository decorates inner with a Redis ticket cache.
func NewCachedTicketRepository(inner TicketRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) TicketRepository {
	if client == nil || ttl <= 0 {
		return inner
	}
	return &cachedTicketRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func ticketCacheKey(id int64) string {
	return fmt.Sprintf("ticket:%d", id)
}

func (r *cachedTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.inner.Create(ctx, ticket)
}

func (r *cachedTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	key := ticketCacheKey(id)
	if payload, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var ticket domain.Ticket
		if err := json.Unmarshal(payload, &ticket); err == nil {
			return &ticket, nil
		}
		// unreadable cache entry; fall through and refresh
		r.client.Del(ctx, key)
	}

	ticket, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, ticket)
	return ticket, nil
}

func (r *cachedTicketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	return r.inner.ListWithFilter(ctx, filter)
}

func (r *cachedTicketRepository) Mutate(ctx context.Context, id int64, fn TicketMutator) (*domain.Ticket, error) {
	if err := r.client.Del(ctx, ticketCacheKey(id)).Err(); err != nil {
		r.logger.Warn("ticket cache invalidation failed", zap.Int64("ticket_id", id), zap.Error(err))
	}
	ticket, err := r.inner.Mutate(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	r.store(ctx, ticket)
	return ticket, nil
}

func (r *cachedTicketRepository) store(ctx context.Context, ticket *domain.Ticket) {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, ticketCacheKey(ticket.ID), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("ticket cache write failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
}
