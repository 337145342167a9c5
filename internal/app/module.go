package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/listing-payment/internal/app/api/server"
	"github.com/fatflowers/listing-payment/internal/app/service/dispatch"
	"github.com/fatflowers/listing-payment/internal/app/service/health"
	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/app/service/reconciliation"
	"github.com/fatflowers/listing-payment/internal/app/service/statistics"
	"github.com/fatflowers/listing-payment/internal/app/service/webhook_handler"
	webhooklog "github.com/fatflowers/listing-payment/internal/app/service/webhook_log"
	"github.com/fatflowers/listing-payment/internal/platform/broker"
	"github.com/fatflowers/listing-payment/internal/platform/cache"
	"github.com/fatflowers/listing-payment/internal/platform/db"
	"github.com/fatflowers/listing-payment/internal/platform/gateway/chapa"
	"github.com/fatflowers/listing-payment/internal/platform/sibling"
	"github.com/fatflowers/listing-payment/internal/platform/telemetry"
	"github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/logger"
	"github.com/fatflowers/listing-payment/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	// DefaultStopTimeout leaves room for in-flight gateway calls and queued
	// side effects to drain.
	DefaultStopTimeout = 45 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	telemetry.Module,
	db.Module,
	cache.Module,
	broker.Module,
	sibling.Module,
	chapa.Module,
	payment.Module,
	dispatch.Module,
	webhooklog.Module,
	webhook_handler.Module,
	reconciliation.Module,
	health.Module,
	statistics.Module,
	server.Module,
)
