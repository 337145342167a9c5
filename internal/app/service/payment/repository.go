package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/pkg/tool"
	"github.com/fatflowers/listing-payment/pkg/types"
)

// Transition is one guarded status change request.
type Transition struct {
	PaymentID string
	To        types.PaymentStatus
	Reason    string
	Source    types.TransitionSource
	At        time.Time
	TraceID   string
}

type ScanRequest struct {
	Filters   types.Filters
	From      int
	Size      int
	SortBy    string
	SortOrder string
}

// ScanFields are the columns admin listing may filter and sort on.
var ScanFields = []string{"id", "request_id", "property_id", "user_id", "status", "gateway_tx_ref", "created_at", "updated_at", "approved_at"}

// Repository is the only writer of the payment table.
type Repository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error)
	GetByGatewayTxRef(ctx context.Context, txRef string) (*models.Payment, error)
	// AttachCheckout stores the gateway reference once; it reports false when
	// a reference was already set.
	AttachCheckout(ctx context.Context, id, txRef, checkoutURL string, at time.Time) (bool, error)
	// TransitionFromPending applies t only while the row is still PENDING and
	// returns the updated row with applied=true, or applied=false when the row
	// was already terminal.
	TransitionFromPending(ctx context.Context, t *Transition) (*models.Payment, bool, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Payment, error)
	Scan(ctx context.Context, req *ScanRequest) ([]*models.Payment, int64, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository { return &GormRepository{db: db} }

func (r *GormRepository) Create(ctx context.Context, p *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateRequest, p.RequestID)
		}
		return fmt.Errorf("%w: create payment: %w", ErrPersistence, err)
	}
	return nil
}

func (r *GormRepository) getBy(ctx context.Context, column, value string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where(clause.Eq{Column: column, Value: value}).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s=%s", ErrNotFound, column, value)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get payment by %s: %w", ErrPersistence, column, err)
	}
	return &p, nil
}

func (r *GormRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.getBy(ctx, "id", id)
}

func (r *GormRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error) {
	return r.getBy(ctx, "request_id", requestID)
}

func (r *GormRepository) GetByGatewayTxRef(ctx context.Context, txRef string) (*models.Payment, error) {
	return r.getBy(ctx, "gateway_tx_ref", txRef)
}

func (r *GormRepository) AttachCheckout(ctx context.Context, id, txRef, checkoutURL string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND gateway_tx_ref IS NULL", id).
		Updates(map[string]any{"gateway_tx_ref": txRef, "checkout_url": checkoutURL, "updated_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("%w: attach checkout: %w", ErrPersistence, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepository) TransitionFromPending(ctx context.Context, t *Transition) (*models.Payment, bool, error) {
	var after *models.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var before models.Payment
		if err := tx.Where("id = ?", t.PaymentID).Take(&before).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id=%s", ErrNotFound, t.PaymentID)
			}
			return err
		}
		if before.Status != types.PaymentStatusPending {
			return nil
		}

		updates := map[string]any{"status": t.To, "updated_at": t.At}
		next := before.Clone()
		next.Status = t.To
		next.UpdatedAt = t.At
		switch t.To {
		case types.PaymentStatusSuccess:
			updates["approved_at"] = t.At
			next.ApprovedAt = &t.At
		case types.PaymentStatusFailed:
			updates["failure_reason"] = t.Reason
			next.FailureReason = &t.Reason
		}
		// the status predicate is the guard against a concurrent transition
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", t.PaymentID, types.PaymentStatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Create(&models.PaymentTransitionLog{
			ID:         tool.GenerateUUIDV7(),
			PaymentID:  t.PaymentID,
			FromStatus: before.Status,
			ToStatus:   t.To,
			Source:     t.Source,
			Reason:     t.Reason,
			TraceID:    t.TraceID,
			Before:     datatypes.NewJSONType(&before),
			After:      datatypes.NewJSONType(next),
			CreatedAt:  t.At,
		}).Error; err != nil {
			return err
		}
		after = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: transition payment %s: %w", ErrPersistence, t.PaymentID, err)
	}
	return after, after != nil, nil
}

func (r *GormRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*models.Payment, error) {
	var rows []*models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", types.PaymentStatusPending, createdBefore).
		Order("created_at").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list stale payments: %w", ErrPersistence, err)
	}
	return rows, nil
}

func (r *GormRepository) Scan(ctx context.Context, req *ScanRequest) ([]*models.Payment, int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.Payment{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{req.Filters}})
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count payments: %w", ErrPersistence, err)
	}

	q := tx.Limit(req.Size).Offset(req.From)
	if req.SortBy != "" {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"})
	}
	var rows []*models.Payment
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: list payments: %w", ErrPersistence, err)
	}
	return rows, total, nil
}
