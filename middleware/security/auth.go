package security

import (
	"net/http"
	"strings"

	"JBProject/global"
	errs "JBProject/tools/errs"
	security "JBProject/tools/security"

	"github.com/gin-gonic/gin"
)

// —— context key ——
// 后续 handler 统一用这俩 key 读取
const (
	CtxUserIDKey = "authUserId" // string
	CtxRoleKey   = "authRole"   // string
)

type Options struct {
	HeaderToken               string // 默认 "authorization"
	EnableAuthorizationBearer bool   // 默认 true
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "authorization",
		EnableAuthorizationBearer: true,
	}
}

// Middleware 校验 JWT 访问令牌并把身份写入 context
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	jwtOpts := security.DefaultOptions(global.GetJwtSecret())

	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		// 兼容 Authorization: Bearer xxx
		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrNoAuth)
			return
		}

		userID, role, err := security.Verify(jwtOpts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Set(CtxRoleKey, role)
		c.Next()
	}
}

// UserID 从 context 取认证后的用户ID
func UserID(c *gin.Context) string {
	v, _ := c.Get(CtxUserIDKey)
	s, _ := v.(string)
	return s
}

// Role 从 context 取角色（seeker/employer/admin）
func Role(c *gin.Context) string {
	v, _ := c.Get(CtxRoleKey)
	s, _ := v.(string)
	return s
}
