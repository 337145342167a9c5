// Package paymenttest provides an in-memory payment.Repository for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/pkg/types"
)

// MemoryRepository mirrors the unique constraints and the conditional
// transition of the gorm repository.
type MemoryRepository struct {
	mu          sync.Mutex
	byID        map[string]*models.Payment
	transitions []*payment.Transition

	// Err, when set, fails every call.
	Err error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: map[string]*models.Payment{}}
}

var _ payment.Repository = (*MemoryRepository)(nil)

// Put stores p as is, bypassing constraints.
func (r *MemoryRepository) Put(p *models.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p.Clone()
}

// Transitions returns the applied transitions in order.
func (r *MemoryRepository) Transitions() []*payment.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*payment.Transition(nil), r.transitions...)
}

func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return fmt.Errorf("%w: %w", payment.ErrPersistence, r.Err)
	}
	for _, existing := range r.byID {
		if existing.RequestID == p.RequestID {
			return fmt.Errorf("%w: %s", payment.ErrDuplicateRequest, p.RequestID)
		}
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *MemoryRepository) find(match func(p *models.Payment) bool, what string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %w", payment.ErrPersistence, r.Err)
	}
	for _, p := range r.byID {
		if match(p) {
			return p.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", payment.ErrNotFound, what)
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Payment, error) {
	return r.find(func(p *models.Payment) bool { return p.ID == id }, id)
}

func (r *MemoryRepository) GetByRequestID(_ context.Context, requestID string) (*models.Payment, error) {
	return r.find(func(p *models.Payment) bool { return p.RequestID == requestID }, requestID)
}

func (r *MemoryRepository) GetByGatewayTxRef(_ context.Context, txRef string) (*models.Payment, error) {
	return r.find(func(p *models.Payment) bool { return p.GatewayTxRef != nil && *p.GatewayTxRef == txRef }, txRef)
}

func (r *MemoryRepository) AttachCheckout(_ context.Context, id, txRef, checkoutURL string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, fmt.Errorf("%w: %w", payment.ErrPersistence, r.Err)
	}
	p, ok := r.byID[id]
	if !ok || p.GatewayTxRef != nil {
		return false, nil
	}
	p.GatewayTxRef = &txRef
	p.CheckoutURL = &checkoutURL
	p.UpdatedAt = at
	return true, nil
}

func (r *MemoryRepository) TransitionFromPending(_ context.Context, t *payment.Transition) (*models.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, false, fmt.Errorf("%w: %w", payment.ErrPersistence, r.Err)
	}
	p, ok := r.byID[t.PaymentID]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", payment.ErrNotFound, t.PaymentID)
	}
	if p.Status != types.PaymentStatusPending {
		return nil, false, nil
	}
	p.Status = t.To
	p.UpdatedAt = t.At
	switch t.To {
	case types.PaymentStatusSuccess:
		at := t.At
		p.ApprovedAt = &at
	case types.PaymentStatusFailed:
		reason := t.Reason
		p.FailureReason = &reason
	}
	cp := *t
	r.transitions = append(r.transitions, &cp)
	return p.Clone(), true, nil
}

func (r *MemoryRepository) ListStalePending(_ context.Context, createdBefore time.Time, limit int) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, fmt.Errorf("%w: %w", payment.ErrPersistence, r.Err)
	}
	var out []*models.Payment
	for _, p := range r.byID {
		if p.Status == types.PaymentStatusPending && p.CreatedAt.Before(createdBefore) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Scan ignores filters and sorts by created_at descending.
func (r *MemoryRepository) Scan(_ context.Context, req *payment.ScanRequest) ([]*models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.byID {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if req.From >= len(out) {
		return nil, total, nil
	}
	out = out[req.From:]
	if req.Size > 0 && len(out) > req.Size {
		out = out[:req.Size]
	}
	return out, total, nil
}
