package middleware

import (
	"net/http"

	"echoboard/internal/db"
	"echoboard/internal/identity"
	"echoboard/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"
const IdentityKey = "identity"
const UnreadCountKey = "unread_count"

// FingerprintHeader carries the client-generated identifier for anonymous
// voters and commenters.
const FingerprintHeader = "X-Client-Fingerprint"

const maxFingerprintLen = 64

// LoadUser resolves the request identity: an authenticated session wins,
// otherwise a client fingerprint makes the caller anonymous-but-stable.
// Requests with neither get no identity and fail later at the write
// endpoints that require one.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")

		if userID != nil {
			var user models.User
			result := db.DB.First(&user, userID)
			if result.Error == nil && user.IsActive {
				c.Set(CheckUserKey, &user)
				c.Set(IdentityKey, identity.Authenticated(user.ID))

				var count int64
				db.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", user.ID, false).Count(&count)
				c.Set(UnreadCountKey, count)
				c.Next()
				return
			}
		}

		if fp := c.GetHeader(FingerprintHeader); fp != "" {
			if len(fp) > maxFingerprintLen {
				fp = fp[:maxFingerprintLen]
			}
			c.Set(IdentityKey, identity.Anonymous(fp))
		}
		c.Next()
	}
}

// AuthRequired guards endpoints that only make sense for signed-in users
// (merging, pinning, the notification inbox).
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}
