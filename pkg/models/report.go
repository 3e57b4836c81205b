package models

import "time"

// Report represents a stored civic issue report row.
// Image bytes never live in the row; only the stored filename and
// declared MIME type are kept (the file itself sits in the uploads dir).
type Report struct {
	ID           int       `json:"id" db:"id"`
	Titulo       string    `json:"titulo" db:"titulo"`
	Descripcion  string    `json:"descripcion" db:"descripcion"`
	Ubicacion    string    `json:"ubicacion" db:"ubicacion"`
	Categoria    string    `json:"categoria" db:"categoria"`
	Estado       string    `json:"estado" db:"estado"`
	ImagenNombre string    `json:"-" db:"imagen_nombre"`
	ImagenTipo   string    `json:"-" db:"imagen_tipo"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ReportView is the normalized shape the mobile client consumes.
// The client reads Spanish and English keys interchangeably, so the
// view carries both, mirroring what the API has always returned.
type ReportView struct {
	ID          int    `json:"id"`
	Titulo      string `json:"titulo"`
	Title       string `json:"title"`
	Descripcion string `json:"descripcion"`
	Description string `json:"description"`
	Ubicacion   string `json:"ubicacion"`
	Location    string `json:"location"`
	Categoria   string `json:"categoria"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	ImageURL    string `json:"imageUrl,omitempty"`
	HasImage    bool   `json:"hasImage"`
	CreatedAt   string `json:"createdAt"`
	Fecha       string `json:"fecha"`
}

// Default display values applied when the stored row lacks them
const (
	DefaultReportStatus   = "Pendiente"
	DefaultReportCategory = "general"
	DefaultReportPriority = "media"
	DefaultReportLocation = "San Salvador, El Salvador"
)

// View normalizes a stored row into the client shape
func (r *Report) View() ReportView {
	v := ReportView{
		ID:          r.ID,
		Titulo:      r.Titulo,
		Title:       r.Titulo,
		Descripcion: r.Descripcion,
		Description: r.Descripcion,
		Ubicacion:   r.Ubicacion,
		Location:    r.Ubicacion,
		Categoria:   r.Categoria,
		Category:    r.Categoria,
		Status:      r.Estado,
		Priority:    DefaultReportPriority,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		Fecha:       r.CreatedAt.Format("2006-01-02"),
	}

	if v.Status == "" {
		v.Status = DefaultReportStatus
	}
	if v.Categoria == "" {
		v.Categoria = DefaultReportCategory
		v.Category = DefaultReportCategory
	}
	if v.Ubicacion == "" {
		v.Ubicacion = DefaultReportLocation
		v.Location = DefaultReportLocation
	}

	if r.ImagenNombre != "" {
		v.HasImage = true
		v.ImageURL = "/uploads/" + r.ImagenNombre
	}

	return v
}

// CreateReportRequest represents the JSON payload for report creation.
// Spanish and English field names are both accepted.
type CreateReportRequest struct {
	Titulo      string `json:"titulo"`
	Title       string `json:"title"`
	Descripcion string `json:"descripcion"`
	Description string `json:"description"`
	Ubicacion   string `json:"ubicacion"`
	Location    string `json:"location"`
	Categoria   string `json:"categoria"`
	Category    string `json:"category"`
}

// Coalesce resolves the dual-language fields, Spanish key wins
func (r *CreateReportRequest) Coalesce() (titulo, descripcion, ubicacion, categoria string) {
	titulo = firstNonEmpty(r.Titulo, r.Title)
	descripcion = firstNonEmpty(r.Descripcion, r.Description)
	ubicacion = firstNonEmpty(r.Ubicacion, r.Location)
	categoria = firstNonEmpty(r.Categoria, r.Category)
	return
}

// UpdateReportRequest represents the payload for partial report updates
type UpdateReportRequest struct {
	Titulo      *string `json:"titulo"`
	Descripcion *string `json:"descripcion"`
	Ubicacion   *string `json:"ubicacion"`
	Categoria   *string `json:"categoria"`
}

// ReportStats is the aggregate shape for the stats endpoint.
// Pending/InProgress/Resolved are derived proportionally from Total
// (there is no reliable status column yet), so Estimated is always true
// and clients should treat the split as an approximation.
type ReportStats struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"inProgress"`
	Resolved       int     `json:"resolved"`
	ResolutionRate float64 `json:"resolutionRate"`
	RecentCount    int     `json:"recentCount"`
	Estimated      bool    `json:"estimated"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
