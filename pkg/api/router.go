// Package api 通过HTTP暴露应用壳
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LENAX/grocery-core/pkg/api/handler"
	"github.com/LENAX/grocery-core/pkg/api/middleware"
	"github.com/LENAX/grocery-core/pkg/shell"
)

// SetupRouter 设置路由
// gatherer为nil时不暴露/metrics
func SetupRouter(sh *shell.Shell, gatherer prometheus.Gatherer, version string) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// 创建handlers
	healthHandler := handler.NewHealthHandler(sh, version)
	deepLinkHandler := handler.NewDeepLinkHandler(sh)
	invitationHandler := handler.NewInvitationHandler(sh)
	bannerHandler := handler.NewBannerHandler(sh)
	initHandler := handler.NewInitHandler(sh)
	directoryHandler := handler.NewDirectoryHandler(sh)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")

	// 导航区域：横幅、初始化结果、清单
	nav := v1.Group("", middleware.Region(shell.RegionNavigation))
	{
		nav.GET("/banner", bannerHandler.Get)
		nav.PUT("/banner", bannerHandler.Set)
		nav.DELETE("/banner", bannerHandler.Clear)
		nav.GET("/banner/ws", bannerHandler.Stream)

		nav.GET("/init/result", initHandler.Result)
		nav.GET("/init/tasks", initHandler.Tasks)
		nav.GET("/sync", initHandler.SyncStats)
		nav.POST("/sync", initHandler.SyncNow)

		nav.GET("/user", directoryHandler.CurrentUser)
		nav.PUT("/user/name", directoryHandler.SetUserName)
		nav.GET("/lists", directoryHandler.ListLists)
		nav.POST("/lists", directoryHandler.CreateList)
		nav.POST("/lists/:id/invitations", directoryHandler.CreateInvitation)
		nav.GET("/invitations/:token", directoryHandler.GetInvitation)
	}

	// 模态区域：深度链接与邀请确认
	modal := v1.Group("", middleware.Region(shell.RegionModal))
	{
		modal.POST("/deeplinks", deepLinkHandler.Open)
		modal.POST("/deeplinks/parse", deepLinkHandler.Parse)
		modal.GET("/invitation", invitationHandler.Get)
		modal.POST("/invitation/accept", invitationHandler.Accept)
		modal.POST("/invitation/decline", invitationHandler.Decline)
	}

	return router
}
