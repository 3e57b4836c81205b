package models

import "time"

// Community represents a topic-scoped group with a shared chat
type Community struct {
	ID          int       `json:"id" db:"id"`
	IDUsuario   int       `json:"idUsuario" db:"id_usuario"`
	Nombre      string    `json:"name" db:"nombre"`
	Descripcion string    `json:"descripcion" db:"descripcion"`
	Categoria   string    `json:"categoria" db:"categoria"`
	Tags        string    `json:"tags" db:"tags"`
	Estado      string    `json:"estado" db:"estado"`
	CreatedAt   time.Time `json:"fechaCreacion" db:"created_at"`
}

// CommunityView is a Community joined with caller-specific membership
// flags and the aggregate member count
type CommunityView struct {
	Community
	MemberCount int  `json:"memberCount"`
	IsJoined    bool `json:"isJoined"`
	IsAdmin     bool `json:"isAdmin"`
}

// Membership ties a user to a community, optionally with admin rights.
// Unique per (community, user) pair.
type Membership struct {
	IDComunidad int       `json:"idComunidad" db:"id_comunidad"`
	IDUsuario   int       `json:"idUsuario" db:"id_usuario"`
	EsAdmin     bool      `json:"esAdmin" db:"es_admin"`
	FechaUnion  time.Time `json:"fechaUnion" db:"fecha_union"`
}

// Message is a plain-text chat entry within a community
type Message struct {
	ID          int       `json:"id" db:"id"`
	IDComunidad int       `json:"idComunidad" db:"id_comunidad"`
	IDUsuario   int       `json:"userId" db:"id_usuario"`
	UserName    string    `json:"userName" db:"user_name"`
	Texto       string    `json:"text" db:"texto"`
	CreatedAt   time.Time `json:"timestamp" db:"created_at"`
}

// CreateCommunityRequest represents the payload for community creation
type CreateCommunityRequest struct {
	Name        string `json:"name"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Description string `json:"description"`
	Categoria   string `json:"categoria"`
	Category    string `json:"category"`
	Tags        string `json:"tags"`
}

// Coalesce resolves the dual-language fields, Spanish key wins
func (r *CreateCommunityRequest) Coalesce() (nombre, descripcion, categoria string) {
	nombre = firstNonEmpty(r.Nombre, r.Name)
	descripcion = firstNonEmpty(r.Descripcion, r.Description)
	categoria = firstNonEmpty(r.Categoria, r.Category)
	return
}

// MembershipActionRequest represents the join/leave toggle payload
type MembershipActionRequest struct {
	Action      string `json:"action"`
	CommunityID int    `json:"communityId"`
	UserID      int    `json:"userId"`
}

// SendMessageRequest represents the chat message payload
type SendMessageRequest struct {
	Text   string `json:"text"`
	Texto  string `json:"texto"`
	UserID int    `json:"userId"`
}

// Body resolves the dual-language text fields
func (r *SendMessageRequest) Body() string {
	return firstNonEmpty(r.Texto, r.Text)
}
