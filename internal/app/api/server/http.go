package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/docs"
	"github.com/fatflowers/listing-payment/internal/app/api/handlers"
	mw "github.com/fatflowers/listing-payment/internal/app/api/middleware"
	"github.com/fatflowers/listing-payment/internal/app/service/health"
	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/app/service/reconciliation"
	"github.com/fatflowers/listing-payment/internal/app/service/statistics"
	"github.com/fatflowers/listing-payment/internal/app/service/webhook_handler"
	cfgpkg "github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/metrics"
	"github.com/fatflowers/listing-payment/pkg/types"
)

func newEngine(cfg *cfgpkg.Config, tracer trace.Tracer) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware(), mw.TracingMiddleware(tracer))
	return r
}

type routeParams struct {
	fx.In

	Engine     *gin.Engine
	Log        *zap.SugaredLogger
	Config     *cfgpkg.Config
	Payments   *payment.Service
	Webhooks   *webhook_handler.WebhookHandler
	Health     *health.Service
	Stats      *statistics.Service
	Reconciler *reconciliation.Scheduler
}

func registerRoutes(lc fx.Lifecycle, p routeParams) error {
	r, log, cfg := p.Engine, p.Log, p.Config

	if cfg.MetricsAddr != "" {
		hm, err := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("register http metrics: %w", err)
		}
		r.Use(hm.Middleware())
		metrics.Serve(lc, log, cfg.MetricsAddr, prometheus.DefaultGatherer)
	}

	logged := []gin.HandlerFunc{mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log)}

	// Public group: probes, docs
	pub := r.Group("/")
	pub.Use(logged...)
	handlers.RegisterHealthRoutes(pub, p.Health)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Gateway callbacks authenticate by signature, never by caller credentials
	webhook := r.Group("/api/v1/webhook")
	webhook.Use(logged...)
	handlers.RegisterWebhookRoutes(webhook, p.Webhooks, cfg.Gateway.ReturnURL, log)

	if !cfg.Auth.Enabled() {
		log.Warnw("caller authentication disabled, no api key or jwt secret configured")
	}
	apiV1 := r.Group("/api/v1")
	apiV1.Use(append(logged, mw.AuthMiddleware(cfg.Auth, log))...)
	handlers.RegisterPaymentRoutes(apiV1.Group("/payments"), p.Payments, log)

	operator := mw.RoleRequired(types.CallerRoleAdmin, types.CallerRoleService)
	apiV1.GET("/metrics", operator, handlers.ApiSummary(p.Stats, log))
	admin := apiV1.Group("/admin", operator)
	handlers.RegisterAdminRoutes(admin, p.Payments, p.Reconciler, p.Stats, log)
	return nil
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
