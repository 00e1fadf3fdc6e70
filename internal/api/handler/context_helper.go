package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/moimene/time-control-hub-sub002/pkg/response"
)

// ResolveCompanyID 结合令牌归属解析本次请求的目标公司。
// 令牌携带 company_id 时以其为准，与请求指定值冲突则写入 403；
// 平台级令牌必须显式提供 company_id，否则写入 400。
// 调用方应在 ok=false 时直接 return。
func ResolveCompanyID(c *gin.Context, requested string) (string, bool) {
	tokenCompany := c.GetString("company_id")
	if tokenCompany != "" {
		if requested != "" && requested != tokenCompany {
			response.Forbidden(c, 10003, "无权访问其他公司数据")
			return "", false
		}
		return tokenCompany, true
	}
	if requested == "" {
		response.BadRequest(c, 10001, "company_id 不能为空")
		return "", false
	}
	return requested, true
}
