package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/config"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/database"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/utils"
)

// UserHandler 用户处理器
type UserHandler struct {
	config *config.Config
	store  database.Store
	logger zerolog.Logger
}

// NewUserHandler 创建用户处理器
func NewUserHandler(cfg *config.Config, store database.Store, logger zerolog.Logger) *UserHandler {
	return &UserHandler{config: cfg, store: store, logger: logger}
}

// List 列出所有用户（不含密码字段）
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteSuccessResponse(w, utils.M{
			"users":   fallbackUsers(),
			"count":   len(fallbackUsers()),
			"warning": warningUnavailable,
		})
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener usuarios")
		return
	}

	profiles := make([]models.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}

	utils.WriteSuccessResponse(w, utils.M{
		"users": profiles,
		"count": len(profiles),
	})
}

// Get 根据ID获取用户
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "ID de usuario inválido")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible")
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		utils.WriteNotFoundResponse(w, "Usuario no encontrado")
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener usuario")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{"user": user.Profile()})
}

// Update 更新用户资料。换密码时必须提供当前密码。
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "ID de usuario inválido")
		return
	}

	var req models.UpdateUserRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Cuerpo de solicitud inválido")
		return
	}

	req.Nombre = strings.TrimSpace(req.Nombre)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		utils.WriteBadRequestResponse(w, "El formato del email no es válido")
		return
	}

	newPassword := ""
	if req.NewPassword != "" {
		if len(req.NewPassword) < 6 {
			utils.WriteBadRequestResponse(w, "La contraseña debe tener al menos 6 caracteres")
			return
		}

		current, err := h.store.GetUserByID(r.Context(), id)
		if errors.Is(err, database.ErrUnavailable) {
			utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible")
			return
		}
		if errors.Is(err, database.ErrNotFound) {
			utils.WriteNotFoundResponse(w, "Usuario no encontrado")
			return
		}
		if err != nil {
			utils.WriteInternalServerErrorResponse(w, "Error al actualizar usuario")
			return
		}

		if !utils.CheckPassword(current.Password, req.CurrentPassword) {
			utils.WriteUnauthorizedResponse(w, "La contraseña actual no es correcta")
			return
		}

		newPassword, err = utils.HashPassword(req.NewPassword)
		if err != nil {
			utils.WriteInternalServerErrorResponse(w, "Error al actualizar usuario")
			return
		}
	}

	user, err := h.store.UpdateUser(r.Context(), id, req.Nombre, req.Email, newPassword)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible")
		return
	}
	if errors.Is(err, database.ErrNoFields) {
		utils.WriteBadRequestResponse(w, "No hay campos válidos para actualizar")
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		utils.WriteNotFoundResponse(w, "Usuario no encontrado")
		return
	}
	if errors.Is(err, database.ErrDuplicate) {
		utils.WriteConflictResponse(w, "El correo ya está en uso")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", id).Msg("user update failed")
		utils.WriteInternalServerErrorResponse(w, "Error al actualizar usuario")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{
		"message": "Usuario actualizado exitosamente",
		"user":    user.Profile(),
	})
}
