package utils

import (
	"encoding/json"
	"net/http"
)

// M 响应负载的便捷别名
type M map[string]interface{}

// WriteJSONResponse 写入JSON响应，负载与success标志合并为平铺对象
// （移动端一直消费 {success, reports, count} 这种平铺结构，而不是嵌套data）
func WriteJSONResponse(w http.ResponseWriter, statusCode int, payload M) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	body := M{"success": statusCode >= 200 && statusCode < 300}
	for k, v := range payload {
		body[k] = v
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		// 如果编码失败，写入简单的错误响应
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteSuccessResponse 写入成功响应
func WriteSuccessResponse(w http.ResponseWriter, payload M) {
	WriteJSONResponse(w, http.StatusOK, payload)
}

// WriteCreatedResponse 写入创建成功响应
func WriteCreatedResponse(w http.ResponseWriter, payload M) {
	WriteJSONResponse(w, http.StatusCreated, payload)
}

// WriteErrorResponse 写入错误响应，信封固定为 {success:false, error, details?}
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteErrorResponseWithDetails(w, statusCode, message, "")
}

// WriteErrorResponseWithDetails 写入带详情的错误响应
func WriteErrorResponseWithDetails(w http.ResponseWriter, statusCode int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	body := M{
		"success": false,
		"error":   message,
	}
	if details != "" {
		body["details"] = details
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteBadRequestResponse 写入400错误响应
func WriteBadRequestResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusBadRequest, message)
}

// WriteUnauthorizedResponse 写入401错误响应
func WriteUnauthorizedResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusUnauthorized, message)
}

// WriteForbiddenResponse 写入403错误响应
func WriteForbiddenResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusForbidden, message)
}

// WriteNotFoundResponse 写入404错误响应
func WriteNotFoundResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusNotFound, message)
}

// WriteConflictResponse 写入409错误响应
func WriteConflictResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusConflict, message)
}

// WriteServiceUnavailableResponse 写入503错误响应
func WriteServiceUnavailableResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusServiceUnavailable, message)
}

// WriteInternalServerErrorResponse 写入500错误响应
func WriteInternalServerErrorResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusInternalServerError, message)
}

// WriteValidationErrorResponse 写入验证错误响应
func WriteValidationErrorResponse(w http.ResponseWriter, message string, details string) {
	WriteErrorResponseWithDetails(w, http.StatusBadRequest, message, details)
}

// ParseJSONBody 解析JSON请求体
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// GetQueryParam 获取查询参数，如果不存在则返回默认值
func GetQueryParam(r *http.Request, key, defaultValue string) string {
	if value := r.URL.Query().Get(key); value != "" {
		return value
	}
	return defaultValue
}
