package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	mw "github.com/fatflowers/listing-payment/internal/app/api/middleware"
	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/internal/models"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/response"
	"github.com/fatflowers/listing-payment/pkg/tool"
	"github.com/fatflowers/listing-payment/pkg/types"
)

// PaymentService is the slice of payment.Service the HTTP layer uses.
type PaymentService interface {
	Initiate(ctx context.Context, caller *types.Caller, req *payment.InitiateRequest) (*payment.InitiateResult, error)
	Get(ctx context.Context, caller *types.Caller, id string) (*models.Payment, error)
	Scan(ctx context.Context, req *payment.ScanRequest) ([]*models.Payment, int64, error)
}

type InitiatePaymentResponse struct {
	ID          string              `json:"id"`
	RequestID   string              `json:"request_id"`
	Status      types.PaymentStatus `json:"status"`
	CheckoutURL string              `json:"checkout_url,omitempty"`
	TxRef       string              `json:"tx_ref,omitempty"`
	Amount      decimal.Decimal     `json:"amount"`
	Currency    string              `json:"currency"`
	// Replayed is set when request_id had been seen before.
	Replayed bool `json:"replayed"`
}

type PaymentStatusResponse struct {
	ID            string              `json:"id"`
	PropertyID    string              `json:"property_id"`
	Status        types.PaymentStatus `json:"status"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	GatewayTxRef  string              `json:"gateway_tx_ref,omitempty"`
	FailureReason *string             `json:"failure_reason"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	ApprovedAt    *time.Time          `json:"approved_at"`
}

func toInitiateResponse(res *payment.InitiateResult) *InitiatePaymentResponse {
	p := res.Payment
	out := &InitiatePaymentResponse{
		ID:        p.ID,
		RequestID: p.RequestID,
		Status:    p.Status,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Replayed:  !res.Created,
	}
	if p.CheckoutURL != nil && p.Status == types.PaymentStatusPending {
		out.CheckoutURL = *p.CheckoutURL
	}
	if p.GatewayTxRef != nil {
		out.TxRef = *p.GatewayTxRef
	}
	return out
}

func toStatusResponse(p *models.Payment) *PaymentStatusResponse {
	out := &PaymentStatusResponse{
		ID:            p.ID,
		PropertyID:    p.PropertyID,
		Status:        p.Status,
		Amount:        p.Amount,
		Currency:      p.Currency,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		ApprovedAt:    p.ApprovedAt,
	}
	if p.GatewayTxRef != nil {
		out.GatewayTxRef = tool.MaskRef(*p.GatewayTxRef, 8)
	}
	return out
}

// @Summary      Initiate listing payment
// @Description  Reserves a PENDING payment for request_id and opens a gateway checkout. Repeating a request_id returns the stored payment without calling the gateway again.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     ApiKeyAuth
// @Param        request  body      payment.InitiateRequest  true  "Initiate request"
// @Success      202      {object}  handlers.RespInitiatePayment  "created"
// @Success      200      {object}  handlers.RespInitiatePayment  "request_id seen before"
// @Failure      400      {object}  handlers.RespError
// @Failure      403      {object}  handlers.RespError
// @Failure      502      {object}  handlers.RespError
// @Failure      503      {object}  handlers.RespError
// @Router       /api/v1/payments/initiate [post]
func ApiInitiatePayment(svc PaymentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.InitiateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, log, "payment_initiate_bind_failed", err)
			return
		}
		res, err := svc.Initiate(c.Request.Context(), mw.CallerFrom(c), &req)
		if err != nil {
			writeError(c, log, "payment_initiate_failed", err)
			return
		}
		status := http.StatusAccepted
		if !res.Created {
			status = http.StatusOK
		}
		logctx.FromGin(c, log).Infow("payment_initiate_response", "payment_id", res.Payment.ID, "status", res.Payment.Status, "created", res.Created)
		c.JSON(status, response.OKT(toInitiateResponse(res)))
	}
}

// @Summary      Payment status
// @Description  Returns the current state of a payment. Owners may only read their own payments.
// @Tags         Payment
// @Produce      json
// @Security     BearerAuth
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  handlers.RespPaymentStatus
// @Failure      403  {object}  handlers.RespError
// @Failure      404  {object}  handlers.RespError
// @Router       /api/v1/payments/{id}/status [get]
func ApiGetPaymentStatus(svc PaymentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), mw.CallerFrom(c), c.Param("id"))
		if err != nil {
			writeError(c, log, "payment_status_failed", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toStatusResponse(p)))
	}
}

func RegisterPaymentRoutes(r gin.IRouter, svc PaymentService, log *zap.SugaredLogger) {
	r.POST("/initiate", ApiInitiatePayment(svc, log))
	r.GET("/:id/status", ApiGetPaymentStatus(svc, log))
}
