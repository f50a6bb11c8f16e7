package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"shop-service/internal/apperr"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ownerContextKey = "cartOwner"

// envelope is the uniform response shape.
type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Status: "success", Message: message, Data: data})
}

func respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	resp := envelope{Status: "failure", Message: appErr.Message, Code: appErr.Code}
	if appErr.Data != nil {
		resp.Data = appErr.Data
	}
	c.JSON(appErr.Status, resp)
}

// ownerMiddleware resolves the request's cart owner once, at the boundary: a
// valid bearer token yields a user owner, an X-Guest-ID header a guest owner.
// Routes decide for themselves whether an owner (or a user) is required.
func ownerMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := parseBearerToken(c.GetHeader("Authorization"), jwtSecret); ok {
			c.Set(ownerContextKey, models.UserOwner(userID))
			c.Next()
			return
		}

		if guestHeader := c.GetHeader("X-Guest-ID"); guestHeader != "" {
			if guestID, err := uuid.Parse(guestHeader); err == nil {
				c.Set(ownerContextKey, models.GuestOwner(guestID))
			}
		}
		c.Next()
	}
}

func parseBearerToken(header, secret string) (uuid.UUID, bool) {
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}
	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// requestOwner returns the resolved owner, if any.
func requestOwner(c *gin.Context) (models.Owner, bool) {
	value, exists := c.Get(ownerContextKey)
	if !exists {
		return models.Owner{}, false
	}
	owner, ok := value.(models.Owner)
	return owner, ok
}

// requireOwner aborts with 401 unless a user or guest identity was resolved.
func requireOwner(c *gin.Context) (models.Owner, bool) {
	owner, ok := requestOwner(c)
	if !ok {
		respondError(c, apperr.Unauthorized("Unauthorized User"))
		c.Abort()
		return models.Owner{}, false
	}
	return owner, true
}

// requireUser aborts with 401 unless an authenticated user was resolved.
// Guests can hold carts but cannot check out or read orders.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	owner, ok := requestOwner(c)
	if !ok || owner.Kind != models.OwnerKindUser {
		respondError(c, apperr.Unauthorized("Unauthorized User"))
		c.Abort()
		return uuid.Nil, false
	}
	return owner.ID, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
