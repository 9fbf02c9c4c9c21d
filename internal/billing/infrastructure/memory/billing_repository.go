package memory

import (
	"context"
	"sort"
	"sync"

	billing "fulfillment-billing/internal/billing/domain"
)

// BillingRepository is an in-memory repository for demo/testing.
type BillingRepository struct {
	mu   sync.RWMutex
	data map[string]*billing.Billing
}

// NewBillingRepository constructs a repository.
func NewBillingRepository() *BillingRepository {
	return &BillingRepository{data: make(map[string]*billing.Billing)}
}

// Save upserts a billing record.
func (r *BillingRepository) Save(ctx context.Context, b *billing.Billing) error {
	_ = ctx
	if b == nil {
		return billing.ErrNilBilling
	}
	if err := b.Validate(); err != nil {
		return err
	}

	clone := *b
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[b.ID] = &clone
	return nil
}

// Get loads a billing record scoped by user.
func (r *BillingRepository) Get(ctx context.Context, id, userID string) (*billing.Billing, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.data[id]
	if b == nil || b.UserID != userID {
		return nil, nil
	}
	clone := *b
	return &clone, nil
}

// ListByUser returns the user's records, newest first.
func (r *BillingRepository) ListByUser(ctx context.Context, userID string) ([]*billing.Billing, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*billing.Billing
	for _, b := range r.data {
		if b.UserID != userID {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a record scoped by user.
func (r *BillingRepository) Delete(ctx context.Context, id, userID string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.data[id]
	if b == nil || b.UserID != userID {
		return billing.ErrNotFound
	}
	delete(r.data, id)
	return nil
}
