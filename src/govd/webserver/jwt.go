package webserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/stake-plus/member-gov/src/govd/types"
)

func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		tok, err := jwt.Parse(h[7:], func(t *jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !tok.Valid {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("addr", tok.Claims.(jwt.MapClaims)["addr"])
		c.Next()
	}
}

// AdminOnly gates the admin group on the member's admin flag.
func AdminOnly(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := c.GetString("addr")
		var m types.Member
		err := db.First(&m, "address = ?", addr).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !m.IsAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "admin role required"})
			return
		}
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Next()
	}
}
