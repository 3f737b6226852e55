package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/shopbill-api/internal/domain/entity"
	"github.com/sangkips/shopbill-api/internal/domain/repository"
	infraRepo "github.com/sangkips/shopbill-api/internal/infrastructure/repository"
	"github.com/sangkips/shopbill-api/internal/presentation/http/dto/response"
)

// ShopIDHeader selects the shop a request acts on
const ShopIDHeader = "X-Shop-ID"

// ExtractShopFromHost extracts the shop slug from the subdomain
// e.g., "corner.shopbill.app" -> "corner"
func ExtractShopFromHost(host string) (string, error) {
	// Remove port if present
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return "", errors.New("invalid subdomain")
	}
	return parts[0], nil
}

// ShopMiddleware resolves the shop from the X-Shop-ID header or the
// subdomain, checks the operator belongs to it, and puts shop and operator
// into the request context. Requests naming no shop pass through without
// one; services reject them where a shop is needed.
func ShopMiddleware(shopRepo repository.ShopRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userID := GetOperatorID(c)
		if userID != uuid.Nil {
			ctx = infraRepo.WithUser(ctx, userID)
		}

		shop, named, err := resolveShop(c, shopRepo)
		if err != nil {
			response.BadRequest(c, "Invalid shop ID")
			c.Abort()
			return
		}
		if !named {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}
		if shop == nil {
			response.NotFound(c, "Shop not found")
			c.Abort()
			return
		}

		if userID != uuid.Nil {
			isMember, err := shopRepo.IsMember(ctx, shop.ID, userID)
			if err != nil {
				response.InternalServerError(c, "Failed to check shop membership")
				c.Abort()
				return
			}
			if !isMember {
				response.Forbidden(c, "Access denied to this shop")
				c.Abort()
				return
			}
		}

		// Set shop ID in Gin context (for middleware/handlers)
		c.Set("shop_id", shop.ID)
		c.Set("shop", shop)

		// Also set shop ID in request context (for services/repositories)
		c.Request = c.Request.WithContext(infraRepo.WithShop(ctx, shop.ID))

		c.Next()
	}
}

var errBadShopID = errors.New("invalid shop id")

// resolveShop reports whether the request named a shop at all and, if so,
// the shop it found
func resolveShop(c *gin.Context, shopRepo repository.ShopRepository) (*entity.Shop, bool, error) {
	ctx := c.Request.Context()

	if header := strings.TrimSpace(c.GetHeader(ShopIDHeader)); header != "" {
		id, err := uuid.Parse(header)
		if err != nil {
			return nil, true, errBadShopID
		}
		shop, err := shopRepo.GetByID(ctx, id)
		if err != nil {
			return nil, true, nil
		}
		return shop, true, nil
	}

	slug, err := ExtractShopFromHost(c.Request.Host)
	if err != nil {
		return nil, false, nil
	}
	shop, err := shopRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, true, nil
	}
	return shop, true, nil
}

// GetShopID retrieves the shop ID from gin context
func GetShopID(c *gin.Context) uuid.UUID {
	shopID, exists := c.Get("shop_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := shopID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// GetOperatorID retrieves the authenticated operator from gin context
func GetOperatorID(c *gin.Context) uuid.UUID {
	userID, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
