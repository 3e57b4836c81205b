package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/config"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/database"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/middleware"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/utils"
)

// 演示模式账号：数据库不可用时仍然可以走通登录流程
const (
	demoEmail    = "lucia@example.com"
	demoPassword = "password123"
	demoUserID   = 3
	demoUserName = "Lucía Martínez"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthHandler 认证处理器
type AuthHandler struct {
	config *config.Config
	store  database.Store
	jwt    *utils.JWTService
	logger zerolog.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, store database.Store, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		store:  store,
		jwt:    utils.NewJWTService(cfg.JWTSecret),
		logger: logger,
	}
}

// Login 登录。三种结果：200成功、401凭据无效、500服务器错误。
// 数据库不可用时降级为演示模式登录。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Cuerpo de solicitud inválido")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		utils.WriteBadRequestResponse(w, "Email y contraseña son requeridos")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, database.ErrUnavailable) {
		h.demoLogin(w, req)
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		utils.WriteUnauthorizedResponse(w, "Credenciales inválidas")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("login lookup failed")
		utils.WriteInternalServerErrorResponse(w, "Error interno del servidor")
		return
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		utils.WriteUnauthorizedResponse(w, "Credenciales inválidas")
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error().Err(err).Msg("token generation failed")
		utils.WriteInternalServerErrorResponse(w, "Error interno del servidor")
		return
	}

	h.logger.Info().Int("user_id", user.ID).Msg("✅ login successful")
	utils.WriteSuccessResponse(w, utils.M{
		"message":   "Inicio de sesión exitoso",
		"user":      user.Profile(),
		"token":     token,
		"expiresAt": expiresAt,
	})
}

// demoLogin 演示模式登录：只认固定的演示账号
func (h *AuthHandler) demoLogin(w http.ResponseWriter, req models.LoginRequest) {
	if req.Email != demoEmail || req.Password != demoPassword {
		utils.WriteUnauthorizedResponse(w, "Credenciales inválidas")
		return
	}

	h.logger.Warn().Msg("⚠️ demo mode login, database unavailable")
	utils.WriteSuccessResponse(w, utils.M{
		"message": "Inicio de sesión exitoso",
		"user": models.UserProfile{
			ID:        demoUserID,
			IDUsuario: demoUserID,
			Nombre:    demoUserName,
			Email:     demoEmail,
			Activo:    true,
		},
		"token":   utils.DemoToken(),
		"warning": "Modo demostración - base de datos no disponible",
	})
}

// Register 注册新用户
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Cuerpo de solicitud inválido")
		return
	}

	req.Nombre = strings.TrimSpace(req.Nombre)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Nombre == "" || req.Email == "" || req.Password == "" {
		utils.WriteBadRequestResponse(w, "Nombre, email y contraseña son requeridos")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		utils.WriteBadRequestResponse(w, "El formato del email no es válido")
		return
	}
	if len(req.Password) < 6 {
		utils.WriteBadRequestResponse(w, "La contraseña debe tener al menos 6 caracteres")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error interno del servidor")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Nombre, req.Email, hashed)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
		return
	}
	if errors.Is(err, database.ErrDuplicate) {
		utils.WriteConflictResponse(w, "El correo ya está registrado")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("registration failed")
		utils.WriteInternalServerErrorResponse(w, "Error interno del servidor")
		return
	}

	h.logger.Info().Int("user_id", user.ID).Msg("✅ user registered")
	utils.WriteCreatedResponse(w, utils.M{
		"message": "Usuario registrado exitosamente",
		"user":    user.Profile(),
	})
}

// Me 返回当前令牌对应的用户资料
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.RequireUser(r.Context())
	if err != nil {
		utils.WriteUnauthorizedResponse(w, "Authentication required")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), caller.ID)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible")
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		utils.WriteNotFoundResponse(w, "Usuario no encontrado")
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error interno del servidor")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{"user": user.Profile()})
}

// Test 认证服务探活端点
func (h *AuthHandler) Test(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, utils.M{
		"message": "Auth API funcionando correctamente",
		"demoUser": utils.M{
			"email":    demoEmail,
			"password": demoPassword,
		},
	})
}
