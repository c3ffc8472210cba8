package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/shell"
)

// Region 将路由组包裹在独立的故障隔离区域中
// 区域内panic时返回最小化的降级响应，其他区域不受影响
func Region(region shell.Region) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := shell.Guard(region, func() error {
			c.Next()
			return nil
		})
		if errors.Is(err, shell.ErrRegionPanicked) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.APIResponse[map[string]string]{
				Code:    500,
				Message: "region unavailable",
				Data:    map[string]string{"region": string(region)},
			})
		}
	}
}
