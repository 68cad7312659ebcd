package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	sessionTTL    = 12 * time.Hour
	rememberedTTL = 30 * 24 * time.Hour
)

// register creates a new credential.
// POST /api/register (public).
func (h *Handler) register(c *gin.Context) {
	var body registration
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.repo.Register(c, body)
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		apiError(c, http.StatusBadRequest, verr.Error())
		return
	case errors.Is(err, errUsernameTaken):
		apiError(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.logger.Error("register failed", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to register")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"username": strings.TrimSpace(body.Username)})
}

// login verifies username/password and returns a session token. With
// remember=true the token outlives the browser session.
// POST /api/login (public).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	body.Username = strings.TrimSpace(body.Username)
	err := h.repo.Authenticate(c, body.Username, body.Password)
	if errors.Is(err, errInvalidCredentials) {
		apiError(c, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to log in")
		return
	}

	ttl := sessionTTL
	if body.Remember {
		ttl = rememberedTTL
	}
	token, expires, err := h.issueToken(body.Username, ttl)
	if err != nil {
		h.logger.Error("sign token failed", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "username": body.Username, "expires_at": expires})
}

// issueToken signs an HS256 token whose subject is the username.
func (h *Handler) issueToken(username string, ttl time.Duration) (string, time.Time, error) {
	now := h.now()
	expires := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	return signed, expires, err
}

// parseToken validates a token and returns its username.
func (h *Handler) parseToken(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return h.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(h.now))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// authMiddleware validates the Bearer token and sets username on the context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		username, err := h.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("username", username)
		c.Next()
	}
}
