package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/listing-payment/internal/app/service/health"
	"github.com/fatflowers/listing-payment/pkg/response"
)

type HealthChecker interface {
	Check(ctx context.Context) health.Result
}

// @Summary      Liveness probe
// @Description  Returns ok while the process serves HTTP
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /healthz [get]
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "ok"}))
}

// @Summary      Dependency health
// @Description  Checks the database, the payment gateway and redis when configured. Results are cached briefly.
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespHealth
// @Failure      503  {object}  handlers.RespHealth
// @Router       /health [get]
func ApiHealth(h HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := h.Check(c.Request.Context())
		if !res.OK {
			c.JSON(http.StatusServiceUnavailable, response.ErrorT(response.APIResponseCodeError, res))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterHealthRoutes(r gin.IRouter, h HealthChecker) {
	r.GET("/healthz", Healthz)
	r.GET("/health", ApiHealth(h))
}
