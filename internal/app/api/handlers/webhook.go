package handlers

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/app/service/webhook_handler"
	"github.com/fatflowers/listing-payment/internal/platform/gateway/chapa"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/response"
)

// maxWebhookBody bounds what a webhook delivery may make us buffer.
const maxWebhookBody = 1 << 20

type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*webhook_handler.Result, error)
	HandleReturn(ctx context.Context, txRef, claimedStatus string) (*webhook_handler.Result, error)
}

type WebhookAck struct {
	Message string `json:"message"`
}

// @Summary      Chapa webhook
// @Description  Receives gateway callbacks. The raw body must carry a valid HMAC-SHA256 signature; the claimed status is re-verified with the gateway before any state change.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        Chapa-Signature  header    string  false  "HMAC-SHA256 of the raw body"
// @Param        payload          body      object  true   "Chapa callback payload"
// @Success      200              {object}  handlers.RespWebhookAck
// @Failure      400              {object}  handlers.RespError
// @Failure      401              {object}  handlers.RespError
// @Failure      404              {object}  handlers.RespError
// @Failure      503              {object}  handlers.RespError
// @Router       /api/v1/webhook/chapa [post]
func ApiChapaWebhook(h WebhookProcessor, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			badRequest(c, log, "webhook_read_failed", err)
			return
		}
		signature := c.GetHeader(chapa.HeaderSignature)
		if signature == "" {
			signature = c.GetHeader(chapa.HeaderSignatureLegacy)
		}
		res, err := h.HandleWebhook(c.Request.Context(), payload, signature)
		if err != nil {
			writeError(c, log, "webhook_chapa_failed", err)
			return
		}
		logctx.FromGin(c, log).Infow("webhook_chapa_handled", "payment_id", res.PaymentID, "status", res.Status, "outcome", res.Outcome)
		c.JSON(http.StatusOK, response.OKT(&WebhookAck{Message: string(res.Outcome)}))
	}
}

// @Summary      Checkout return
// @Description  Browser return leg from the hosted checkout. Query parameters are untrusted and only select the transaction to verify. Redirects to the configured return URL when one is set.
// @Tags         Webhook
// @Produce      json
// @Param        trx_ref  query     string  true   "Gateway transaction reference"
// @Param        status   query     string  false  "Status claimed by the gateway redirect"
// @Success      200      {object}  handlers.RespWebhookResult
// @Success      302
// @Failure      400      {object}  handlers.RespError
// @Failure      404      {object}  handlers.RespError
// @Router       /api/v1/webhook/chapa [get]
func ApiChapaReturn(h WebhookProcessor, returnURL string, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		txRef := c.Query("trx_ref")
		if txRef == "" {
			txRef = c.Query("tx_ref")
		}
		res, err := h.HandleReturn(c.Request.Context(), txRef, c.Query("status"))
		if err != nil {
			writeError(c, log, "webhook_return_failed", err)
			return
		}
		if target := returnTarget(returnURL, res); target != "" {
			c.Redirect(http.StatusFound, target)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func returnTarget(returnURL string, res *webhook_handler.Result) string {
	if returnURL == "" {
		return ""
	}
	u, err := url.Parse(returnURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("payment_id", res.PaymentID)
	q.Set("status", string(res.Status))
	u.RawQuery = q.Encode()
	return u.String()
}

func RegisterWebhookRoutes(r gin.IRouter, h WebhookProcessor, returnURL string, log *zap.SugaredLogger) {
	r.POST("/chapa", ApiChapaWebhook(h, log))
	r.GET("/chapa", ApiChapaReturn(h, returnURL, log))
}
