package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/config"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/utils"
)

// Recovery 恢复中间件，单个请求的panic绝不拖垮进程
func Recovery(cfg *config.Config, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					stack := debug.Stack()

					logger.Error().
						Interface("panic", err).
						Str("path", r.URL.Path).
						Bytes("stack", stack).
						Msg("❌ panic recovered")

					if cfg.IsDevelopment() {
						// 开发环境：附带panic详情方便排查
						utils.WriteErrorResponseWithDetails(w, http.StatusInternalServerError,
							"Internal server error", fmt.Sprintf("%v", err))
					} else {
						// 生产环境：隐藏详细错误信息
						utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
