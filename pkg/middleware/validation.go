package middleware

import (
	"net/http"
)

// MaxBodySize 限制请求体大小。报告可能携带图片，
// 上限放在路由层按需设置（报告路由比纯JSON路由宽）。
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
