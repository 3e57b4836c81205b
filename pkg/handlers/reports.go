package handlers

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/cache"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/config"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/database"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/formdata"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/storage"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/utils"
)

// ReportHandler 报告处理器
type ReportHandler struct {
	config  *config.Config
	store   database.Store
	uploads *storage.Uploads
	stats   *cache.StatsCache
	logger  zerolog.Logger
}

// NewReportHandler 创建报告处理器
func NewReportHandler(cfg *config.Config, store database.Store, uploads *storage.Uploads, stats *cache.StatsCache, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		config:  cfg,
		store:   store,
		uploads: uploads,
		stats:   stats,
		logger:  logger,
	}
}

// List 列出所有报告，最新的在前
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListReports(r.Context())
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteSuccessResponse(w, utils.M{
			"reports": fallbackReports(),
			"count":   len(fallbackReports()),
			"warning": warningUnavailable,
		})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("report list failed")
		utils.WriteInternalServerErrorResponse(w, "Error al obtener reportes")
		return
	}

	views := make([]models.ReportView, 0, len(reports))
	for i := range reports {
		views = append(views, reports[i].View())
	}

	utils.WriteSuccessResponse(w, utils.M{
		"reports": views,
		"count":   len(views),
	})
}

// Create 创建报告。请求体可以是纯JSON，也可以是带可选image字段的
// multipart/form-data（移动端拍照上传走这条路径）。
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	var titulo, descripcion, ubicacion, categoria string
	var image *formdata.Image

	if strings.Contains(contentType, "multipart/form-data") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			utils.WriteBadRequestResponse(w, "No se pudo leer el cuerpo de la solicitud")
			return
		}
		defer r.Body.Close()

		form := formdata.Decode(body, contentType)
		titulo = firstOf(form, "titulo", "title")
		descripcion = firstOf(form, "descripcion", "description")
		ubicacion = firstOf(form, "ubicacion", "location")
		categoria = firstOf(form, "categoria", "category")
		if form.HasImage() {
			image = form.Image
		}
	} else {
		var req models.CreateReportRequest
		if err := utils.ParseJSONBody(r, &req); err != nil {
			utils.WriteBadRequestResponse(w, "Cuerpo de solicitud inválido")
			return
		}
		titulo, descripcion, ubicacion, categoria = req.Coalesce()
	}

	var missing []string
	if titulo == "" {
		missing = append(missing, "titulo")
	}
	if descripcion == "" {
		missing = append(missing, "descripcion")
	}
	if ubicacion == "" {
		missing = append(missing, "ubicacion")
	}
	if categoria == "" {
		missing = append(missing, "categoria")
	}
	if len(missing) > 0 {
		utils.WriteValidationErrorResponse(w, "Faltan campos requeridos",
			"Campos faltantes: "+strings.Join(missing, ", "))
		return
	}

	imagenNombre, imagenTipo := "", ""
	if image != nil {
		// 字节落盘，数据库行里只存文件名和MIME类型
		if err := h.uploads.Save(image.Filename, image.Data); err != nil {
			h.logger.Error().Err(err).Msg("image save failed")
			utils.WriteInternalServerErrorResponse(w, "Error al guardar la imagen")
			return
		}
		imagenNombre = image.Filename
		imagenTipo = image.MIME
	}

	report, err := h.store.CreateReport(r.Context(), titulo, descripcion, ubicacion, categoria, imagenNombre, imagenTipo)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible, intenta más tarde")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("report create failed")
		utils.WriteInternalServerErrorResponse(w, "Error al crear el reporte")
		return
	}

	h.logger.Info().Int("report_id", report.ID).Bool("has_image", image != nil).Msg("✅ report created")
	utils.WriteCreatedResponse(w, utils.M{
		"message": "Reporte creado exitosamente",
		"report":  report.View(),
	})
}

// Get 根据ID获取报告
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "ID de reporte inválido")
		return
	}

	report, err := h.store.GetReportByID(r.Context(), id)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible")
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		utils.WriteNotFoundResponse(w, "Reporte no encontrado")
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener el reporte")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{"report": report.View()})
}

// Update 部分更新报告，只接受白名单字段
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "ID de reporte inválido")
		return
	}

	var req models.UpdateReportRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Cuerpo de solicitud inválido")
		return
	}

	fields := map[string]string{}
	if req.Titulo != nil {
		fields["titulo"] = *req.Titulo
	}
	if req.Descripcion != nil {
		fields["descripcion"] = *req.Descripcion
	}
	if req.Ubicacion != nil {
		fields["ubicacion"] = *req.Ubicacion
	}
	if req.Categoria != nil {
		fields["categoria"] = *req.Categoria
	}

	report, err := h.store.UpdateReportPartial(r.Context(), id, fields)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible")
		return
	}
	if errors.Is(err, database.ErrNoFields) {
		utils.WriteBadRequestResponse(w, "No hay campos válidos para actualizar")
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		utils.WriteNotFoundResponse(w, "Reporte no encontrado")
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al actualizar el reporte")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{
		"message": "Reporte actualizado exitosamente",
		"report":  report.View(),
	})
}

// Delete 删除报告，按实际删除行数区分404
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteBadRequestResponse(w, "ID de reporte inválido")
		return
	}

	deleted, err := h.store.DeleteReport(r.Context(), id)
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteServiceUnavailableResponse(w, "Base de datos no disponible")
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al eliminar el reporte")
		return
	}
	if !deleted {
		utils.WriteNotFoundResponse(w, "Reporte no encontrado")
		return
	}

	utils.WriteSuccessResponse(w, utils.M{"message": "Reporte eliminado exitosamente"})
}

// Stats 报告统计。pending/inProgress/resolved按总数比例推算
// （60%/25%/剩余），是显式的占位估算而不是真实状态机，
// 响应里的estimated=true提醒客户端。recentCount是真实的7天查询。
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.stats.Get(r.Context()); ok {
		utils.WriteSuccessResponse(w, utils.M{"stats": cached, "cached": true})
		return
	}

	total, recent, err := h.store.CountReports(r.Context())
	if errors.Is(err, database.ErrUnavailable) {
		utils.WriteSuccessResponse(w, fallbackStats())
		return
	}
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Error al obtener estadísticas")
		return
	}

	stats := deriveStats(total, recent)
	h.stats.Set(r.Context(), stats)

	utils.WriteSuccessResponse(w, utils.M{"stats": stats})
}

// deriveStats 从总数推算状态分布
func deriveStats(total, recent int) *models.ReportStats {
	pending := int(math.Ceil(float64(total) * 0.6))
	inProgress := int(math.Ceil(float64(total) * 0.25))
	resolved := total - pending - inProgress
	if resolved < 0 {
		resolved = 0
	}

	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(resolved) / float64(total) * 100)
	}

	return &models.ReportStats{
		Total:          total,
		Pending:        pending,
		InProgress:     inProgress,
		Resolved:       resolved,
		ResolutionRate: rate,
		RecentCount:    recent,
		Estimated:      true,
	}
}

// firstOf 按优先级取表单字段（西语字段名优先）
func firstOf(form *formdata.Form, names ...string) string {
	for _, name := range names {
		if v := form.Get(name); v != "" {
			return v
		}
	}
	return ""
}
