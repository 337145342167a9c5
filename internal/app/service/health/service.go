package health

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/fatflowers/listing-payment/internal/platform/gateway"
	"github.com/fatflowers/listing-payment/pkg/config"
)

const checkTimeout = 3 * time.Second

type CheckFunc func(ctx context.Context) error

type Result struct {
	At     time.Time         `json:"at"`
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Service runs dependency checks, caching the outcome for ttl so probes
// cannot hammer the gateway.
type Service struct {
	mu sync.Mutex

	checks map[string]CheckFunc
	ttl    time.Duration
	now    func() time.Time

	nextCheckAt time.Time
	lastResult  Result
}

func NewService(ttl time.Duration, checks map[string]CheckFunc) *Service {
	return &Service{ttl: ttl, checks: checks, now: time.Now, lastResult: Result{Checks: map[string]string{}}}
}

func (s *Service) Check(ctx context.Context) Result {
	s.mu.Lock()
	if s.now().Before(s.nextCheckAt) {
		res := s.lastResult
		s.mu.Unlock()
		return res
	}
	s.mu.Unlock()

	res := Result{At: s.now().UTC(), OK: true, Checks: make(map[string]string, len(s.checks))}
	var (
		wg  sync.WaitGroup
		rmu sync.Mutex
	)
	for name, fn := range s.checks {
		wg.Add(1)
		go func(name string, fn CheckFunc) {
			defer wg.Done()
			status := "ok"
			if fn == nil {
				status = "invalid check"
			} else {
				cctx, cancel := context.WithTimeout(ctx, checkTimeout)
				defer cancel()
				if err := fn(cctx); err != nil {
					status = err.Error()
				}
			}
			rmu.Lock()
			defer rmu.Unlock()
			res.Checks[name] = status
			if status != "ok" {
				res.OK = false
			}
		}(name, fn)
	}
	wg.Wait()

	s.mu.Lock()
	s.lastResult = res
	s.nextCheckAt = s.now().Add(s.ttl)
	s.mu.Unlock()
	return res
}

type params struct {
	fx.In

	Config  *config.Config
	DB      *gorm.DB
	Gateway gateway.Gateway
	Redis   *redis.Client `optional:"true"`
}

func newDependencyService(p params) *Service {
	checks := map[string]CheckFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := p.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"gateway": p.Gateway.Ping,
	}
	if p.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return p.Redis.Ping(ctx).Err() }
	}
	return NewService(p.Config.Health.CacheTTL, checks)
}

var Module = fx.Options(
	fx.Provide(newDependencyService),
)
