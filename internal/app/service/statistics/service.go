package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/pkg/types"
)

type StatisticType string

const (
	StatisticTypeDailyPaymentCount StatisticType = "daily_payment_count"
	StatisticTypeDailyRevenue      StatisticType = "daily_revenue"
	StatisticTypeStatusBreakdown   StatisticType = "status_breakdown"
)

// FilterFields are the payment columns daily statistics may be filtered on.
var FilterFields = []string{"status", "property_id", "user_id", "created_at"}

type DataItem struct {
	ID StatisticType `json:"id"`
}

type Request struct {
	Filters   types.Filters `json:"filters"`
	DataItems []*DataItem   `json:"data_items"`
}

func (r *Request) Validate() error {
	for _, f := range r.Filters {
		if err := f.Validate(FilterFields); err != nil {
			return err
		}
	}
	if len(r.DataItems) == 0 {
		return fmt.Errorf("no data items requested")
	}
	return nil
}

type ResponseDataItem struct {
	Date  string          `json:"date,omitempty"`
	Label string          `json:"label,omitempty"`
	Value decimal.Decimal `json:"value"`
}

type Response struct {
	DataItems map[StatisticType][]ResponseDataItem `json:"data_items"`
}

// Summary is the operator view of all payments.
type Summary struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
	// Revenue sums SUCCESS amounts.
	Revenue decimal.Decimal `json:"revenue"`
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	var rows []struct {
		Status types.PaymentStatus
		Count  int64
		Amount decimal.NullDecimal
	}
	err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("status, count(*) as count, sum(amount) as amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("payment summary: %w", err)
	}
	sum := &Summary{Revenue: decimal.Zero}
	for _, r := range rows {
		sum.Total += r.Count
		switch r.Status {
		case types.PaymentStatusPending:
			sum.Pending = r.Count
		case types.PaymentStatusSuccess:
			sum.Success = r.Count
			if r.Amount.Valid {
				sum.Revenue = r.Amount.Decimal
			}
		case types.PaymentStatusFailed:
			sum.Failed = r.Count
		}
	}
	return sum, nil
}

func (s *Service) filtered(ctx context.Context, req *Request) *gorm.DB {
	return s.db.WithContext(ctx).Table(models.Payment{}.TableName()).
		Where(clause.Where{Exprs: []clause.Expression{req.Filters}})
}

func (s *Service) getDailyPaymentCount(ctx context.Context, req *Request) ([]ResponseDataItem, error) {
	var results []ResponseDataItem
	err := s.filtered(ctx, req).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date").
		Find(&results).Error
	return results, err
}

func (s *Service) getDailyRevenue(ctx context.Context, req *Request) ([]ResponseDataItem, error) {
	var results []ResponseDataItem
	err := s.filtered(ctx, req).
		Select("TO_CHAR(approved_at, 'YYYY-MM-DD') as date, currency as label, sum(amount) as value").
		Where("status = ?", types.PaymentStatusSuccess).
		Group("TO_CHAR(approved_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}).
		Find(&results).Error
	return results, err
}

func (s *Service) getStatusBreakdown(ctx context.Context, req *Request) ([]ResponseDataItem, error) {
	var results []ResponseDataItem
	err := s.filtered(ctx, req).
		Select("status as label, count(*) as value").
		Group("status").
		Order("label").
		Find(&results).Error
	return results, err
}

func (s *Service) getStatistic(ctx context.Context, req *Request, item *DataItem) ([]ResponseDataItem, error) {
	switch item.ID {
	case StatisticTypeDailyPaymentCount:
		return s.getDailyPaymentCount(ctx, req)
	case StatisticTypeDailyRevenue:
		return s.getDailyRevenue(ctx, req)
	case StatisticTypeStatusBreakdown:
		return s.getStatusBreakdown(ctx, req)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", item.ID)
	}
}

// GetStatistics computes every requested data item concurrently.
func (s *Service) GetStatistics(ctx context.Context, req *Request) (*Response, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(req.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []ResponseDataItem], len(req.DataItems))

	for _, item := range req.DataItems {
		wg.Add(1)
		go func(di *DataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, req, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []ResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}
	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]ResponseDataItem)
	for i := 0; i < len(req.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &Response{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
