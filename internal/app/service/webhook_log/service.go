package webhook_log

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/tool"
)

// Saver persists webhook audit rows.
type Saver interface {
	Save(ctx context.Context, log *models.WebhookLog)
}

type Service struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	pending sync.WaitGroup
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a webhook log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.WebhookLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	ctx = logctx.Detach(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("webhook_log_save_failed", "tx_ref", log.GatewayTxRef, "err", err)
		}
	}()
}

// Wait blocks until every queued Save finished.
func (s *Service) Wait() { s.pending.Wait() }

func newLifecycleService(lc fx.Lifecycle, db *gorm.DB, log *zap.SugaredLogger) *Service {
	s := New(db, log)
	lc.Append(fx.StopHook(s.Wait))
	return s
}

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(newLifecycleService, fx.As(fx.Self()), fx.As(new(Saver))),
	),
)
