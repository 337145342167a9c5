package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/listing-payment/pkg/config"
	"github.com/fatflowers/listing-payment/pkg/logctx"
	"github.com/fatflowers/listing-payment/pkg/response"
	"github.com/fatflowers/listing-payment/pkg/types"
)

const (
	HeaderAPIKey = "X-API-Key"
	keyCaller    = "caller"
)

type callerClaims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// AuthMiddleware accepts either the service API key or an HS256 bearer token
// carrying sub and role. It is a no-op when no credential is configured.
func AuthMiddleware(cfg config.AuthConfig, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.Next()
			return
		}
		caller, err := authenticate(c.Request, cfg)
		if err != nil {
			logctx.FromGin(c, base).Warnw("auth_rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, nil))
			return
		}
		c.Set(keyCaller, caller)
		setLogger(c, logctx.FromGin(c, base).With("caller", caller.Subject, "role", caller.Role))
		c.Next()
	}
}

func authenticate(r *http.Request, cfg config.AuthConfig) (*types.Caller, error) {
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		if cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
			return nil, fmt.Errorf("invalid api key")
		}
		return &types.Caller{Subject: "service", Role: types.CallerRoleService}, nil
	}

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, fmt.Errorf("missing credentials")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("bearer tokens are not accepted")
	}
	claims := &callerClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token without sub")
	}
	role := types.CallerRole(claims.Role)
	if !lo.Contains([]types.CallerRole{types.CallerRoleOwner, types.CallerRoleAdmin, types.CallerRoleService}, role) {
		role = types.CallerRoleOwner
	}
	return &types.Caller{Subject: claims.Subject, Role: role}, nil
}

// RoleRequired lets through authenticated callers holding one of roles.
// Without authentication configured every request passes.
func RoleRequired(roles ...types.CallerRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if caller == nil || lo.Contains(roles, caller.Role) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, nil))
	}
}

// CallerFrom returns the authenticated caller, nil when auth is disabled.
func CallerFrom(c *gin.Context) *types.Caller {
	v, ok := c.Get(keyCaller)
	if !ok {
		return nil
	}
	caller, _ := v.(*types.Caller)
	return caller
}
