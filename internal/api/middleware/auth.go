package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moimene/time-control-hub-sub002/pkg/jwt"
	"github.com/moimene/time-control-hub-sub002/pkg/response"
)

// JWTAuth 服务令牌认证中间件
// 从 Authorization: Bearer <token> 中提取并验证令牌，
// 将调用方身份（user_id / role / company_id）注入上下文
func JWTAuth(jwtMgr *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("company_id", claims.CompanyID)

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前调用方是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		callerRole := role.(string)
		for _, r := range allowedRoles {
			if callerRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

// CompanyScope 公司数据边界中间件
// 令牌携带 company_id 时，调用方只能操作该公司数据；
// 平台级令牌（company_id 为空）不受限制
func CompanyScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenCompany := c.GetString("company_id")
		if tokenCompany == "" {
			c.Next()
			return
		}

		requested := c.Query("company_id")
		if requested != "" && requested != tokenCompany {
			response.Forbidden(c, 10003, "无权访问其他公司数据")
			c.Abort()
			return
		}

		c.Next()
	}
}
