package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Perismakworo/Shesecure2/internal/sos/domain"
)

const (
	dispatchKeyPrefix = "sos:dispatch:" // sos:dispatch:{id} -> dispatch JSON
	userSetPrefix     = "sos:user:"     // sos:user:{email}:dispatches -> set of ids
	DefaultTTL        = 7 * 24 * time.Hour
)

// DispatchRepository keeps SOS dispatch records in Redis. Deliveries live in
// a hash beside the record so concurrent senders never rewrite each other.
type DispatchRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDispatchRepository(client *redis.Client, ttl time.Duration) *DispatchRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DispatchRepository{client: client, ttl: ttl}
}

// Create stores the dispatch, its initial deliveries and the owner index.
func (r *DispatchRepository) Create(ctx context.Context, d *domain.Dispatch) error {
	head := *d
	head.Deliveries = nil
	data, err := json.Marshal(head)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch: %w", err)
	}

	fields := make(map[string]any, len(d.Deliveries))
	for _, del := range d.Deliveries {
		b, err := json.Marshal(del)
		if err != nil {
			return fmt.Errorf("failed to marshal delivery: %w", err)
		}
		fields[del.Key()] = string(b)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.dispatchKey(d.ID), data, r.ttl)
	if len(fields) > 0 {
		pipe.HSet(ctx, r.deliveriesKey(d.ID), fields)
		pipe.Expire(ctx, r.deliveriesKey(d.ID), r.ttl)
	}
	pipe.SAdd(ctx, r.userSetKey(d.Owner), d.ID)
	pipe.Expire(ctx, r.userSetKey(d.Owner), r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create dispatch: %w", err)
	}
	return nil
}

// RecordDelivery replaces the delivery for (channel, recipient).
func (r *DispatchRepository) RecordDelivery(ctx context.Context, id string, del domain.Delivery) error {
	b, err := json.Marshal(del)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.deliveriesKey(id), del.Key(), string(b))
	pipe.Expire(ctx, r.deliveriesKey(id), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

// Finish stamps the dispatch as completed, keeping its TTL.
func (r *DispatchRepository) Finish(ctx context.Context, id string, at time.Time) error {
	head, err := r.getHead(ctx, id)
	if err != nil {
		return err
	}
	head.CompletedAt = &at

	data, err := json.Marshal(head)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch: %w", err)
	}
	if err := r.client.Set(ctx, r.dispatchKey(id), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to finish dispatch: %w", err)
	}
	return nil
}

// Get returns the dispatch with its deliveries sorted by channel and recipient.
func (r *DispatchRepository) Get(ctx context.Context, id string) (*domain.Dispatch, error) {
	d, err := r.getHead(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := r.client.HGetAll(ctx, r.deliveriesKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get deliveries: %w", err)
	}

	d.Deliveries = make([]domain.Delivery, 0, len(raw))
	for _, v := range raw {
		var del domain.Delivery
		if err := json.Unmarshal([]byte(v), &del); err != nil {
			return nil, fmt.Errorf("failed to unmarshal delivery: %w", err)
		}
		d.Deliveries = append(d.Deliveries, del)
	}
	d.SortDeliveries()
	return d, nil
}

// ListByUser returns the ids of dispatches the user triggered that have not expired.
func (r *DispatchRepository) ListByUser(ctx context.Context, email string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.userSetKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches for user: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *DispatchRepository) getHead(ctx context.Context, id string) (*domain.Dispatch, error) {
	data, err := r.client.Get(ctx, r.dispatchKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrDispatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatch: %w", err)
	}

	var d domain.Dispatch
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dispatch: %w", err)
	}
	return &d, nil
}

func (r *DispatchRepository) dispatchKey(id string) string {
	return dispatchKeyPrefix + id
}

func (r *DispatchRepository) deliveriesKey(id string) string {
	return dispatchKeyPrefix + id + ":deliveries"
}

func (r *DispatchRepository) userSetKey(email string) string {
	return fmt.Sprintf("%s%s:dispatches", userSetPrefix, email)
}
