package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/config"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/database"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/middleware"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/utils"
)

// defaultCallerID 历史客户端在未登录状态下的默认用户ID
const defaultCallerID = 1

// 消息分页默认值
const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// CommunityHandler 社区处理器
type CommunityHandler struct {
	config *config.Config
	store  database.Store
	logger zerolog.Logger
}

// NewCommunityHandler 创建社区处理器
func NewCommunityHandler(cfg *config.Config, store database.Store, logger zerolog.Logger) *CommunityHandler {
	return &CommunityHandler{config: cfg, store: store, logger: logger}
}

// resolveCallerID 解析调用者身份。优先用令牌里的用户，
// 其次是历史客户端沿用的x-user-id头和userId查询参数。
func (h *CommunityHandler) resolveCallerID(r *http.Request, bodyUserID int) int {
	if user, ok := middleware.GetUserFromContext(r.Context()); ok && user != nil {
		return user.ID
	}
	if header := r.Header.Get("X-User-Id"); header != "" {
		if id, err := strconv.Atoi(header); err == nil && id > 0 {
			return id
		}
	}
	if query := r.URL.Query().Get("userId"); query != "" {
		if id, err := strconv.Atoi(query); err == nil && id > 0 {
			return id
		}
	}
	if bodyUserID > 0 {
		return bodyUserID
	}
	return defaultCallerID
}

// List 列出所有社区，带成员数和调用者的isJoined/isAdmin标志
func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := h.resolveCallerID(r, 0)

	communities, err := h.store.ListCommunities(r.Context(), callerID)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteSuccessResponse(w, utils.M{
			"data":    fallbackCommunities(),
			"count":   len(fallbackCommunities()),
			"warning": warningUnavailable,
		})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("community list failed")
		utils.WriteInternalServerErrorResponse(w, "Error al obtener comunidades")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{
		"data":  communities,
		"count": len(communities),
	})
}

// Create 创建社区，创建者在同一事务里成为管理员成员
func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCommunityRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Cuerpo de solicitud inválido")
		return
	}

	nombre, descripcion, categoria := req.Coalesce()
	if nombre == "" {
		utils.WriteBadRequestResponse(w, "El nombre de la comunidad es requerido")
		return
	}

	ownerID := h.resolveCallerID(r, 0)

	// 历史客户端可能携带尚未注册的用户ID
	if _, err := h.store.EnsureUser(r.Context(), ownerID); err != nil {
		if errors.Is(err, database.ErrUnavailable) {
			utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Error al crear la comunidad")
		return
	}

	community, err := h.store.CreateCommunity(r.Context(), ownerID, nombre, descripcion, categoria, req.Tags)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("community create failed")
		utils.WriteInternalServerErrorResponse(w, "Error al crear la comunidad")
		return
	}

	utils.WriteCreatedResponse(w, utils.M{
		"message": "Comunidad creada exitosamente",
		"data": models.CommunityView{
			Community:   *community,
			MemberCount: 1,
			IsJoined:    true,
			IsAdmin:     true,
		},
	})
}

// Action 成员资格开关：join加入（重复加入报错），leave退出（非成员报错）
func (h *CommunityHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req models.MembershipActionRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Cuerpo de solicitud inválido")
		return
	}

	if req.Action != "join" && req.Action != "leave" {
		utils.WriteBadRequestResponse(w, "Acción inválida, usa 'join' o 'leave'")
		return
	}
	if req.CommunityID <= 0 {
		utils.WriteBadRequestResponse(w, "communityId es requerido")
		return
	}

	userID := h.resolveCallerID(r, req.UserID)

	if _, err := h.store.EnsureUser(r.Context(), userID); err != nil {
		if errors.Is(err, database.ErrUnavailable) {
			utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Error al procesar la acción")
		return
	}

	switch req.Action {
	case "join":
		err := h.store.JoinCommunity(r.Context(), req.CommunityID, userID)
		if errors.Is(err, database.ErrDuplicate) {
			utils.WriteBadRequestResponse(w, "Ya eres miembro de esta comunidad")
			return
		}
		if errors.Is(err, database.ErrUnavailable) {
			utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
			return
		}
		if err != nil {
			h.logger.Error().Err(err).Msg("community join failed")
			utils.WriteInternalServerErrorResponse(w, "Error al unirse a la comunidad")
			return
		}
		utils.WriteSuccessResponse(w, utils.M{"message": "Te has unido a la comunidad"})

	case "leave":
		err := h.store.LeaveCommunity(r.Context(), req.CommunityID, userID)
		if errors.Is(err, database.ErrNotMember) {
			utils.WriteBadRequestResponse(w, "No eres miembro de esta comunidad")
			return
		}
		if errors.Is(err, database.ErrUnavailable) {
			utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
			return
		}
		if err != nil {
			h.logger.Error().Err(err).Msg("community leave failed")
			utils.WriteInternalServerErrorResponse(w, "Error al salir de la comunidad")
			return
		}
		utils.WriteSuccessResponse(w, utils.M{"message": "Has salido de la comunidad"})
	}
}

// ListUserCommunities 列出调用者已加入的社区
func (h *CommunityHandler) ListUserCommunities(w http.ResponseWriter, r *http.Request) {
	callerID := h.resolveCallerID(r, 0)

	communities, err := h.store.ListUserCommunities(r.Context(), callerID)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteSuccessResponse(w, utils.M{
			"data":    []models.CommunityView{},
			"count":   0,
			"warning": warningUnavailable,
		})
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener comunidades del usuario")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{
		"data":  communities,
		"count": len(communities),
	})
}

// Get 获取社区详情
func (h *CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "ID de comunidad inválido")
		return
	}

	callerID := h.resolveCallerID(r, 0)

	community, err := h.store.GetCommunity(r.Context(), id, callerID)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible")
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		utils.WriteNotFoundResponse(w, "Comunidad no encontrada")
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener la comunidad")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{"data": community})
}

// ListMessages 列出社区消息。副作用：调用者还不是成员时自动补建
// 成员资格（低风险聊天场景刻意保持的宽容策略，社区不存在也不报错）。
func (h *CommunityHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	communityID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "ID de comunidad inválido")
		return
	}

	callerID := h.resolveCallerID(r, 0)

	limit, offset := parsePagination(r)

	if _, err := h.store.EnsureUser(r.Context(), callerID); err != nil && !errors.Is(err, database.ErrUnavailable) {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener mensajes")
		return
	}
	if err := h.store.EnsureMembership(r.Context(), communityID, callerID); err != nil && !errors.Is(err, database.ErrUnavailable) {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener mensajes")
		return
	}

	messages, err := h.store.ListMessages(r.Context(), communityID, limit, offset)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteSuccessResponse(w, utils.M{
			"messages": []models.Message{},
			"count":    0,
			"warning":  warningUnavailable,
		})
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener mensajes")
		return
	}

	if messages == nil {
		messages = []models.Message{}
	}

	utils.WriteSuccessResponse(w, utils.M{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage 发送消息，同样带自动补建用户和成员资格的副作用
func (h *CommunityHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	communityID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "ID de comunidad inválido")
		return
	}

	var req models.SendMessageRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Cuerpo de solicitud inválido")
		return
	}

	text := req.Body()
	if text == "" {
		utils.WriteBadRequestResponse(w, "El texto del mensaje es requerido")
		return
	}

	userID := h.resolveCallerID(r, req.UserID)

	if _, err := h.store.EnsureUser(r.Context(), userID); err != nil {
		if errors.Is(err, database.ErrUnavailable) {
			utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Error al enviar el mensaje")
		return
	}
	if err := h.store.EnsureMembership(r.Context(), communityID, userID); err != nil {
		if errors.Is(err, database.ErrUnavailable) {
			utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
			return
		}
		utils.WriteInternalServerErrorResponse(w, "Error al enviar el mensaje")
		return
	}

	message, err := h.store.CreateMessage(r.Context(), communityID, userID, text)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("message send failed")
		utils.WriteInternalServerErrorResponse(w, "Error al enviar el mensaje")
		return
	}

	utils.WriteCreatedResponse(w, utils.M{
		"message": "Mensaje enviado",
		"data":    message,
	})
}

// TestConnection 社区服务探活端点，报告存储连通状态
func (h *CommunityHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	connected := h.store.HealthCheck(r.Context()) == nil
	utils.WriteSuccessResponse(w, utils.M{
		"message":   "Communities API funcionando",
		"connected": connected,
	})
}

// parsePagination 解析page/limit查询参数为limit/offset
func parsePagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := utils.GetQueryParam(r, "limit", ""); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page := 1
	if raw := utils.GetQueryParam(r, "page", ""); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	offset = (page - 1) * limit
	return limit, offset
}
