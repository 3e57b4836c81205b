package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
)

// 自动补建占位用户使用的固定口令（开发便利策略，见EnsureUser）
const placeholderPassword = "password123"

// PostgresStore PostgreSQL存储实现
type PostgresStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresStore 创建PostgreSQL存储实例
func NewPostgresStore(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 有界连接池：突发流量下排队等待而不是无限开连接
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// ===== 用户 =====

// CreateUser 创建用户
func (s *PostgresStore) CreateUser(ctx context.Context, nombre, email, password string) (*models.User, error) {
	user := &models.User{
		Nombre: nombre,
		Email:  email,
		Activo: true,
	}

	query := `
		INSERT INTO usuarios (nombre, email, password, activo)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query, nombre, email, password).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if translated := translateError(err); errors.Is(translated, ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, nombre, email, password, activo, created_at, updated_at
		FROM usuarios WHERE email = $1`

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Nombre, &user.Email, &user.Password, &user.Activo, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID 根据ID获取用户
func (s *PostgresStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, nombre, email, password, activo, created_at, updated_at
		FROM usuarios WHERE id = $1`

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Nombre, &user.Email, &user.Password, &user.Activo, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// ListUsers 列出所有用户
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, nombre, email, password, activo, created_at, updated_at
		FROM usuarios ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Nombre, &user.Email, &user.Password, &user.Activo, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateUser 部分更新用户资料，空字符串表示该字段不变
func (s *PostgresStore) UpdateUser(ctx context.Context, id int, nombre, email, password string) (*models.User, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if nombre != "" {
		setClauses = append(setClauses, fmt.Sprintf("nombre = $%d", argIndex))
		args = append(args, nombre)
		argIndex++
	}
	if email != "" {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argIndex))
		args = append(args, email)
		argIndex++
	}
	if password != "" {
		setClauses = append(setClauses, fmt.Sprintf("password = $%d", argIndex))
		args = append(args, password)
		argIndex++
	}

	if len(setClauses) == 0 {
		return nil, ErrNoFields
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE usuarios SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argIndex)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if translated := translateError(err); errors.Is(translated, ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetUserByID(ctx, id)
}

// EnsureUser 确保用户存在，不存在时补建占位用户。
// 这是社区聊天路径沿用的开发便利策略：客户端可能携带
// 尚未注册的用户ID，为了不阻断聊天流程直接补建。
func (s *PostgresStore) EnsureUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	s.logger.Info().Int("user_id", id).Msg("🔄 auto-provisioning placeholder user")

	query := `
		INSERT INTO usuarios (id, nombre, email, password, activo)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO NOTHING`

	nombre := fmt.Sprintf("Usuario %d", id)
	email := fmt.Sprintf("usuario%d@miciudadsv.com", id)

	if _, err := s.db.ExecContext(ctx, query, id, nombre, email, placeholderPassword); err != nil {
		return nil, fmt.Errorf("failed to auto-provision user %d: %w", id, err)
	}

	// 显式id插入后把序列推到前面，避免后续注册撞上重复主键
	if _, err := s.db.ExecContext(ctx,
		"SELECT setval('usuarios_id_seq', GREATEST((SELECT MAX(id) FROM usuarios), 1))"); err != nil {
		s.logger.Warn().Err(err).Msg("failed to advance usuarios sequence")
	}

	return s.GetUserByID(ctx, id)
}

// ===== 报告 =====

const reportColumns = `id, titulo, descripcion,
	COALESCE(ubicacion, ''), COALESCE(categoria, ''), COALESCE(estado, ''),
	COALESCE(imagen_nombre, ''), COALESCE(imagen_tipo, ''), created_at`

// CreateReport 创建报告并按ID重新读取，保证调用方拿到数据库计算的默认值
func (s *PostgresStore) CreateReport(ctx context.Context, titulo, descripcion, ubicacion, categoria, imagenNombre, imagenTipo string) (*models.Report, error) {
	query := `
		INSERT INTO reportes (titulo, descripcion, ubicacion, categoria, estado, imagen_nombre, imagen_tipo)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int
	err := s.db.QueryRowContext(ctx, query,
		titulo, descripcion, ubicacion, categoria, models.DefaultReportStatus,
		nullIfEmpty(imagenNombre), nullIfEmpty(imagenTipo)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return s.GetReportByID(ctx, id)
}

// GetReportByID 根据ID获取报告（不含二进制数据，行里本来也只有文件名）
func (s *PostgresStore) GetReportByID(ctx context.Context, id int) (*models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reportes WHERE id = $1", reportColumns)

	report := &models.Report{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&report.ID, &report.Titulo, &report.Descripcion,
		&report.Ubicacion, &report.Categoria, &report.Estado,
		&report.ImagenNombre, &report.ImagenTipo, &report.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// ListReports 列出所有报告，最新的在前
func (s *PostgresStore) ListReports(ctx context.Context) ([]models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reportes ORDER BY created_at DESC", reportColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var report models.Report
		if err := rows.Scan(
			&report.ID, &report.Titulo, &report.Descripcion,
			&report.Ubicacion, &report.Categoria, &report.Estado,
			&report.ImagenNombre, &report.ImagenTipo, &report.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// updatableReportColumns 部分更新的列白名单
var updatableReportColumns = map[string]bool{
	"titulo":      true,
	"descripcion": true,
	"ubicacion":   true,
	"categoria":   true,
}

// UpdateReportPartial 按白名单部分更新报告，字段集为空时报错而不是静默跳过
func (s *PostgresStore) UpdateReportPartial(ctx context.Context, id int, fields map[string]string) (*models.Report, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	for column, value := range fields {
		if !updatableReportColumns[column] {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if len(setClauses) == 0 {
		return nil, ErrNoFields
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE reportes SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), argIndex)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetReportByID(ctx, id)
}

// DeleteReport 删除报告，返回是否实际删除了行
func (s *PostgresStore) DeleteReport(ctx context.Context, id int) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reportes WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete report: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CountReports 返回报告总数和最近7天的数量
func (s *PostgresStore) CountReports(ctx context.Context) (int, int, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '7 days')
		FROM reportes`

	var total, recent int
	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &recent); err != nil {
		return 0, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	return total, recent, nil
}

// ===== 社区 =====

// CreateCommunity 创建社区并在同一事务里写入创建者的管理员成员资格
func (s *PostgresStore) CreateCommunity(ctx context.Context, ownerID int, nombre, descripcion, categoria, tags string) (*models.Community, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	community := &models.Community{
		IDUsuario:   ownerID,
		Nombre:      nombre,
		Descripcion: descripcion,
		Categoria:   categoria,
		Tags:        tags,
		Estado:      "activa",
	}

	query := `
		INSERT INTO comunidades (id_usuario, nombre, descripcion, categoria, tags, estado)
		VALUES ($1, $2, $3, $4, $5, 'activa')
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query, ownerID, nombre,
		nullIfEmpty(descripcion), nullIfEmpty(categoria), nullIfEmpty(tags)).
		Scan(&community.ID, &community.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create community: %w", err)
	}

	// 创建者自动成为管理员成员
	memberQuery := `
		INSERT INTO comunidad_miembros (id_comunidad, id_usuario, es_admin)
		VALUES ($1, $2, TRUE)`

	if _, err := tx.ExecContext(ctx, memberQuery, community.ID, ownerID); err != nil {
		return nil, fmt.Errorf("failed to create admin membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Int("community_id", community.ID).Int("owner_id", ownerID).Msg("✅ community created")
	return community, nil
}

const communityViewQuery = `
	SELECT c.id, c.id_usuario, c.nombre,
	       COALESCE(c.descripcion, ''), COALESCE(c.categoria, ''), COALESCE(c.tags, ''),
	       c.estado, c.created_at,
	       COUNT(DISTINCT m.id_usuario) AS member_count,
	       COALESCE(BOOL_OR(m.id_usuario = $1), FALSE) AS is_joined,
	       COALESCE(BOOL_OR(m.id_usuario = $1 AND m.es_admin), FALSE) AS is_admin
	FROM comunidades c
	LEFT JOIN comunidad_miembros m ON m.id_comunidad = c.id`

func scanCommunityView(rows interface{ Scan(...interface{}) error }) (models.CommunityView, error) {
	var v models.CommunityView
	err := rows.Scan(&v.ID, &v.IDUsuario, &v.Nombre,
		&v.Descripcion, &v.Categoria, &v.Tags,
		&v.Estado, &v.CreatedAt,
		&v.MemberCount, &v.IsJoined, &v.IsAdmin)
	return v, err
}

// GetCommunity 获取社区详情，带成员数和调用者的成员标志
func (s *PostgresStore) GetCommunity(ctx context.Context, id, callerID int) (*models.CommunityView, error) {
	query := communityViewQuery + " WHERE c.id = $2 GROUP BY c.id"

	row := s.db.QueryRowContext(ctx, query, callerID, id)
	view, err := scanCommunityView(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}

	return &view, nil
}

// ListCommunities 列出所有社区，带聚合成员数和调用者标志
func (s *PostgresStore) ListCommunities(ctx context.Context, callerID int) ([]models.CommunityView, error) {
	query := communityViewQuery + " GROUP BY c.id ORDER BY c.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	var views []models.CommunityView
	for rows.Next() {
		view, err := scanCommunityView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan community: %w", err)
		}
		views = append(views, view)
	}

	return views, rows.Err()
}

// ListUserCommunities 列出调用者加入的社区
func (s *PostgresStore) ListUserCommunities(ctx context.Context, userID int) ([]models.CommunityView, error) {
	query := communityViewQuery + `
	WHERE c.id IN (SELECT id_comunidad FROM comunidad_miembros WHERE id_usuario = $1)
	GROUP BY c.id ORDER BY c.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user communities: %w", err)
	}
	defer rows.Close()

	var views []models.CommunityView
	for rows.Next() {
		view, err := scanCommunityView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan community: %w", err)
		}
		views = append(views, view)
	}

	return views, rows.Err()
}

// JoinCommunity 加入社区，重复加入返回ErrDuplicate
func (s *PostgresStore) JoinCommunity(ctx context.Context, communityID, userID int) error {
	query := `
		INSERT INTO comunidad_miembros (id_comunidad, id_usuario, es_admin)
		VALUES ($1, $2, FALSE)`

	if _, err := s.db.ExecContext(ctx, query, communityID, userID); err != nil {
		if translated := translateError(err); errors.Is(translated, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to join community: %w", err)
	}

	return nil
}

// LeaveCommunity 退出社区，原本不是成员时返回ErrNotMember
func (s *PostgresStore) LeaveCommunity(ctx context.Context, communityID, userID int) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM comunidad_miembros WHERE id_comunidad = $1 AND id_usuario = $2",
		communityID, userID)
	if err != nil {
		return fmt.Errorf("failed to leave community: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotMember
	}

	return nil
}

// EnsureMembership 不存在时补建成员资格。社区本身不存在时不报错，
// 聊天路径对不存在的社区照常返回空列表（宽容策略）。
func (s *PostgresStore) EnsureMembership(ctx context.Context, communityID, userID int) error {
	query := `
		INSERT INTO comunidad_miembros (id_comunidad, id_usuario, es_admin)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (id_comunidad, id_usuario) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, communityID, userID); err != nil {
		if isForeignKeyViolation(err) {
			s.logger.Warn().Int("community_id", communityID).Int("user_id", userID).
				Msg("auto-join skipped, community does not exist")
			return nil
		}
		return fmt.Errorf("failed to ensure membership: %w", err)
	}

	return nil
}

// ===== 消息 =====

// ListMessages 列出社区消息，最新的在前，偏移分页
func (s *PostgresStore) ListMessages(ctx context.Context, communityID, limit, offset int) ([]models.Message, error) {
	query := `
		SELECT msg.id, msg.id_comunidad, msg.id_usuario,
		       COALESCE(u.nombre, 'Usuario ' || msg.id_usuario),
		       msg.texto, msg.created_at
		FROM comunidad_mensajes msg
		LEFT JOIN usuarios u ON u.id = msg.id_usuario
		WHERE msg.id_comunidad = $1
		ORDER BY msg.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, communityID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.IDComunidad, &msg.IDUsuario,
			&msg.UserName, &msg.Texto, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// CreateMessage 写入消息并连同作者显示名返回
func (s *PostgresStore) CreateMessage(ctx context.Context, communityID, userID int, texto string) (*models.Message, error) {
	msg := &models.Message{
		IDComunidad: communityID,
		IDUsuario:   userID,
		Texto:       texto,
	}

	query := `
		INSERT INTO comunidad_mensajes (id_comunidad, id_usuario, texto)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query, communityID, userID, texto).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// 作者显示名，占位用户场景下可能刚刚补建
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(nombre, 'Usuario ' || $1) FROM usuarios WHERE id = $1", userID).
		Scan(&msg.UserName); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to resolve author name: %w", err)
	}
	if msg.UserName == "" {
		msg.UserName = fmt.Sprintf("Usuario %d", userID)
	}

	return msg, nil
}

// HealthCheck 健康检查
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭连接
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// nullIfEmpty 空字符串转为NULL
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
