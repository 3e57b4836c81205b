// Package api 组装HTTP路由。所有端点集中在一个Chi路由器中管理（单体路由模式）。
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/cache"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/config"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/database"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/handlers"
	customMiddleware "github.com/KevinZepeda39/App-Ciudad-Sv/pkg/middleware"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/storage"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/utils"
)

// 请求体上限：纯JSON路由1MB，带图片的报告路由15MB
const (
	jsonBodyLimit   = 1 << 20
	reportBodyLimit = 15 << 20
)

// availableRoutes 404响应里返回的路由目录，方便客户端排查
var availableRoutes = []string{
	"GET /",
	"GET /api/test",
	"POST /api/auth/login",
	"POST /api/auth/register",
	"GET /api/auth/test",
	"GET /api/auth/me",
	"GET /api/users",
	"GET /api/users/{id}",
	"PUT /api/users/{id}",
	"GET /api/reports",
	"POST /api/reports",
	"GET /api/reports/stats",
	"GET /api/reports/{id}",
	"PUT /api/reports/{id}",
	"DELETE /api/reports/{id}",
	"GET /api/communities",
	"POST /api/communities",
	"POST /api/communities/action",
	"GET /api/communities/user",
	"GET /api/communities/test/connection",
	"GET /api/communities/{id}",
	"GET /api/communities/{id}/messages",
	"POST /api/communities/{id}/messages",
	"GET /uploads/{filename}",
}

// New 构建应用的HTTP处理器
func New(cfg *config.Config, store database.Store, uploads *storage.Uploads, stats *cache.StatsCache, logger zerolog.Logger) http.Handler {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupRoutes(router, cfg, store, uploads, stats, logger)

	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config, logger zerolog.Logger) {
	// 基础中间件
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.RequestLogger(logger))
	router.Use(customMiddleware.Recovery(cfg, logger))

	// CORS中间件
	router.Use(customMiddleware.CORS(cfg))

	// 请求级超时：慢查询或挂住的客户端不能无限占用连接
	router.Use(middleware.Timeout(25 * time.Second))

	// 压缩中间件
	router.Use(middleware.Compress(5))

	// 令牌有效时填充调用者身份，无令牌的历史客户端照常放行
	router.Use(customMiddleware.OptionalAuthMiddleware(cfg))

	// 开发环境额外中间件
	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, cfg *config.Config, store database.Store, uploads *storage.Uploads, stats *cache.StatsCache, logger zerolog.Logger) {
	// 创建处理器
	authHandler := handlers.NewAuthHandler(cfg, store, logger)
	userHandler := handlers.NewUserHandler(cfg, store, logger)
	reportHandler := handlers.NewReportHandler(cfg, store, uploads, stats, logger)
	communityHandler := handlers.NewCommunityHandler(cfg, store, logger)

	// 服务信息
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccessResponse(w, utils.M{
			"message":   "Mi Ciudad SV API",
			"version":   "1.0.0",
			"endpoints": availableRoutes,
		})
	})

	// 上传图片按文件名回传
	router.Get("/uploads/{filename}", func(w http.ResponseWriter, r *http.Request) {
		path, err := uploads.Path(chi.URLParam(r, "filename"))
		if err != nil {
			utils.WriteNotFoundResponse(w, "Imagen no encontrada")
			return
		}
		http.ServeFile(w, r, path)
	})

	// API路由组
	router.Route("/api", func(r chi.Router) {
		// 探活端点
		r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteSuccessResponse(w, utils.M{
				"message":   "API funcionando correctamente",
				"timestamp": time.Now().Format(time.RFC3339),
				"database":  store.HealthCheck(r.Context()) == nil,
			})
		})

		// 认证路由
		r.Route("/auth", func(r chi.Router) {
			r.Use(customMiddleware.MaxBodySize(jsonBodyLimit))
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Get("/test", authHandler.Test)

			// 需要有效令牌的路由
			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.AuthMiddleware(cfg))
				r.Get("/me", authHandler.Me)
			})
		})

		// 用户路由
		r.Route("/users", func(r chi.Router) {
			r.Use(customMiddleware.MaxBodySize(jsonBodyLimit))
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
		})

		// 报告路由
		r.Route("/reports", func(r chi.Router) {
			r.Use(customMiddleware.MaxBodySize(reportBodyLimit))
			r.Get("/", reportHandler.List)
			r.Post("/", reportHandler.Create)
			r.Get("/stats", reportHandler.Stats)
			r.Get("/{id}", reportHandler.Get)
			r.Put("/{id}", reportHandler.Update)
			r.Delete("/{id}", reportHandler.Delete)
		})

		// 社区路由
		r.Route("/communities", func(r chi.Router) {
			r.Use(customMiddleware.MaxBodySize(jsonBodyLimit))
			r.Get("/", communityHandler.List)
			r.Post("/", communityHandler.Create)
			r.Post("/action", communityHandler.Action)
			r.Get("/user", communityHandler.ListUserCommunities)
			r.Get("/test/connection", communityHandler.TestConnection)
			r.Get("/{id}", communityHandler.Get)
			r.Get("/{id}/messages", communityHandler.ListMessages)
			r.Post("/{id}/messages", communityHandler.SendMessage)
		})
	})

	// 404处理：带路由目录方便客户端排查
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONResponse(w, http.StatusNotFound, utils.M{
			"success":         false,
			"error":           fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path),
			"availableRoutes": availableRoutes,
		})
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
	})
}
