package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/blues/fundmagic/internal/logger"
	"github.com/blues/fundmagic/internal/logic"
	"github.com/blues/fundmagic/internal/model"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

// Authenticator 根据令牌解析当前用户
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.UserModel, error)
}

// RequireAuth 校验 Bearer 令牌，失败时返回 401
func RequireAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			var bizErr *logic.BizError
			if errors.As(err, &bizErr) && errors.Is(err, logic.ErrUnauthenticated) {
				abortUnauthorized(c, bizErr.Detail)
				return
			}
			logger.Error("authenticate request: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "internal server error",
				"data":    nil,
			})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser 返回已认证的用户，未经过 RequireAuth 时为 nil
func CurrentUser(c *gin.Context) *model.UserModel {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.UserModel)
	return user
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
		"data":    nil,
	})
}
