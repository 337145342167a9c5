package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/internal/app/service/payment"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/response"
)

// statusOf maps the payment error taxonomy onto an HTTP status and envelope code.
func statusOf(err error) (int, response.APIResponseCode) {
	switch {
	case errors.Is(err, payment.ErrValidation):
		return http.StatusBadRequest, response.APIResponseCodeBadRequest
	case errors.Is(err, payment.ErrAuthentication):
		return http.StatusUnauthorized, response.APIResponseCodeUnauthorized
	case errors.Is(err, payment.ErrForbidden):
		return http.StatusForbidden, response.APIResponseCodeForbidden
	case errors.Is(err, payment.ErrNotFound):
		return http.StatusNotFound, response.APIResponseCodeNotFound
	case errors.Is(err, payment.ErrGatewayRejected):
		return http.StatusBadGateway, response.APIResponseCodeGatewayRejected
	case errors.Is(err, payment.ErrGatewayUnavailable), errors.Is(err, payment.ErrGatewayTransient):
		return http.StatusServiceUnavailable, response.APIResponseCodeGatewayUnavailable
	default:
		return http.StatusInternalServerError, response.APIResponseCodeError
	}
}

// writeError logs err and aborts with the mapped envelope. Client errors carry
// the error text, server errors only the generic message.
func writeError(c *gin.Context, base *zap.SugaredLogger, event string, err error) {
	status, code := statusOf(err)
	lg := logctx.FromGin(c, base)
	if status >= http.StatusInternalServerError {
		lg.Errorw(event, "error", err.Error(), "status", status)
		c.AbortWithStatusJSON(status, response.ErrorT[any](code, nil))
		return
	}
	lg.Infow(event, "error", err.Error(), "status", status)
	c.AbortWithStatusJSON(status, response.ErrorT[any](code, err.Error()))
}

func badRequest(c *gin.Context, base *zap.SugaredLogger, event string, err error) {
	logctx.FromGin(c, base).Infow(event, "error", err.Error())
	c.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
}
