package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/repository"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/response"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	TTL  time.Duration
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a request repeats a key it
// has seen. Requests without a key are processed normally.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to POST, PUT, PATCH methods
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		userID := GetOperatorID(c)
		if idempotencyKey == "" || userID == uuid.Nil {
			c.Next()
			return
		}

		handleIdempotent(c, config, idempotencyKey, userID)
	}
}

// IdempotencyRequired is the stricter version used on writes that create
// bills or ledger entries: the key is mandatory
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only apply to POST methods
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required for this request")
			c.Abort()
			return
		}

		userID := GetOperatorID(c)
		if userID == uuid.Nil {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}

		handleIdempotent(c, config, idempotencyKey, userID)
	}
}

func handleIdempotent(c *gin.Context, config IdempotencyConfig, idempotencyKey string, userID uuid.UUID) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "Could not read request body")
		c.Abort()
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	endpoint := c.Request.Method + " " + c.Request.URL.Path
	requestHash := hashBody(body)

	// Check if this key was already processed
	// Keys are scoped per operator and shop; the same key in another shop is
	// a different request
	shopID := GetShopID(c)
	existing, err := config.Repo.GetByKey(c.Request.Context(), idempotencyKey, userID, shopID)
	if err != nil {
		response.InternalServerError(c, "Failed to check idempotency key")
		c.Abort()
		return
	}

	// If key exists and not expired, return cached response
	if existing != nil && !existing.IsExpired() {
		if !existing.Matches(endpoint, requestHash) {
			response.ErrorWithCode(c, http.StatusConflict, "Idempotency-Key was already used for a different request")
			c.Abort()
			return
		}
		c.Header("X-Idempotency-Replayed", "true")
		c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
		c.Abort()
		return
	}

	// Capture the response
	blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
	c.Writer = blw

	// Process the request
	c.Next()

	// Only store successful responses (2xx status codes) so failed
	// submissions can be corrected and retried under the same key
	status := c.Writer.Status()
	if status < 200 || status >= 300 {
		return
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = IdempotencyKeyTTL
	}
	ikey := &entity.IdempotencyKey{
		Key:          idempotencyKey,
		UserID:       userID,
		ShopID:       shopID,
		Endpoint:     endpoint,
		RequestHash:  requestHash,
		ResponseCode: status,
		ResponseBody: blw.body.String(),
		ExpiresAt:    time.Now().Add(ttl),
	}
	if err := config.Repo.Create(c.Request.Context(), ikey); err != nil && !errors.Is(err, repository.ErrDuplicateKey) {
		log.Printf("[idempotency] failed to store key %q: %v", idempotencyKey, err)
	}
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
