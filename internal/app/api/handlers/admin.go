package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/app/service/reconciliation"
	"github.com/fatflowers/listing-payment/internal/app/service/statistics"
	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/pkg/response"
	"github.com/fatflowers/listing-payment/pkg/types"
)

type StatisticsProvider interface {
	GetSummary(ctx context.Context) (*statistics.Summary, error)
	GetStatistics(ctx context.Context, req *statistics.Request) (*statistics.Response, error)
}

type Reconciler interface {
	RunOnce(ctx context.Context) (*reconciliation.SweepResult, error)
}

type ListPaymentsRequest struct {
	Filters   types.Filters `json:"filters"`
	From      int           `json:"from"`
	Size      int           `json:"size"`
	SortBy    string        `json:"sort_by"`
	SortOrder string        `json:"sort_order"`
}

type ListPaymentsResponse struct {
	Payments []*PaymentStatusResponse `json:"payments"`
	Total    int64                    `json:"total"`
}

// @Summary      List payments
// @Description  Admin listing with filters, pagination and sorting. Filter fields: id, request_id, property_id, user_id, status, gateway_tx_ref, created_at, updated_at, approved_at.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     ApiKeyAuth
// @Param        request  body      handlers.ListPaymentsRequest  true  "List request"
// @Success      200      {object}  handlers.RespListPayments
// @Failure      400      {object}  handlers.RespError
// @Router       /api/v1/admin/payments/list [post]
func ApiListPayments(svc PaymentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListPaymentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, log, "admin_list_bind_failed", err)
			return
		}
		items, total, err := svc.Scan(c.Request.Context(), &payment.ScanRequest{
			Filters:   req.Filters,
			From:      req.From,
			Size:      req.Size,
			SortBy:    req.SortBy,
			SortOrder: req.SortOrder,
		})
		if err != nil {
			writeError(c, log, "admin_list_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ListPaymentsResponse{
			Payments: lo.Map(items, func(p *models.Payment, _ int) *PaymentStatusResponse { return toStatusResponse(p) }),
			Total:    total,
		}))
	}
}

// @Summary      Run reconciliation
// @Description  Runs one reconciliation sweep now, failing PENDING payments older than the staleness threshold.
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Security     ApiKeyAuth
// @Success      200  {object}  handlers.RespSweep
// @Failure      500  {object}  handlers.RespError
// @Router       /api/v1/admin/reconcile [post]
func ApiReconcile(r Reconciler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := r.RunOnce(c.Request.Context())
		if err != nil {
			writeError(c, log, "admin_reconcile_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Payment statistics
// @Description  Daily payment statistics. Supported data items: daily_payment_count, daily_revenue, status_breakdown.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     ApiKeyAuth
// @Param        request  body      statistics.Request  true  "Statistics request"
// @Success      200      {object}  handlers.RespStatistics
// @Failure      400      {object}  handlers.RespError
// @Router       /api/v1/admin/statistics [post]
func ApiStatistics(stats StatisticsProvider, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, log, "admin_statistics_bind_failed", err)
			return
		}
		if err := req.Validate(); err != nil {
			badRequest(c, log, "admin_statistics_invalid", err)
			return
		}
		res, err := stats.GetStatistics(c.Request.Context(), &req)
		if err != nil {
			writeError(c, log, "admin_statistics_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Payment summary
// @Description  Counts by status and total revenue of successful payments.
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Security     ApiKeyAuth
// @Success      200  {object}  handlers.RespSummary
// @Router       /api/v1/metrics [get]
func ApiSummary(stats StatisticsProvider, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := stats.GetSummary(c.Request.Context())
		if err != nil {
			writeError(c, log, "summary_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, svc PaymentService, rec Reconciler, stats StatisticsProvider, log *zap.SugaredLogger) {
	r.POST("/payments/list", ApiListPayments(svc, log))
	r.POST("/reconcile", ApiReconcile(rec, log))
	r.POST("/statistics", ApiStatistics(stats, log))
}
