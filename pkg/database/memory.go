package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
)

// MemoryStore 内存存储实现，用于本地开发和处理器测试。
// 语义与PostgresStore对齐：同样的哨兵错误、同样的宽容策略。
type MemoryStore struct {
	mu sync.RWMutex

	users       map[int]*models.User
	reports     map[int]*models.Report
	communities map[int]*models.Community
	memberships map[string]*models.Membership
	messages    []*models.Message

	nextUserID      int
	nextReportID    int
	nextCommunityID int
	nextMessageID   int
}

// NewMemoryStore 创建内存存储实例
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:           make(map[int]*models.User),
		reports:         make(map[int]*models.Report),
		communities:     make(map[int]*models.Community),
		memberships:     make(map[string]*models.Membership),
		nextUserID:      1,
		nextReportID:    1,
		nextCommunityID: 1,
		nextMessageID:   1,
	}
}

func membershipKey(communityID, userID int) string {
	return fmt.Sprintf("%d:%d", communityID, userID)
}

// ===== 用户 =====

func (s *MemoryStore) CreateUser(ctx context.Context, nombre, email, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return nil, ErrDuplicate
		}
	}

	now := time.Now()
	user := &models.User{
		ID:        s.nextUserID,
		Nombre:    nombre,
		Email:     email,
		Password:  password,
		Activo:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[user.ID] = user
	s.nextUserID++

	clone := *user
	return &clone, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, *s.users[id])
	}
	return users, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id int, nombre, email, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nombre == "" && email == "" && password == "" {
		return nil, ErrNoFields
	}

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	if email != "" {
		for otherID, other := range s.users {
			if otherID != id && other.Email == email {
				return nil, ErrDuplicate
			}
		}
		u.Email = email
	}
	if nombre != "" {
		u.Nombre = nombre
	}
	if password != "" {
		u.Password = password
	}
	u.UpdatedAt = time.Now()

	clone := *u
	return &clone, nil
}

func (s *MemoryStore) EnsureUser(ctx context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone, nil
	}

	now := time.Now()
	user := &models.User{
		ID:        id,
		Nombre:    fmt.Sprintf("Usuario %d", id),
		Email:     fmt.Sprintf("usuario%d@miciudadsv.com", id),
		Password:  placeholderPassword,
		Activo:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[id] = user
	if id >= s.nextUserID {
		s.nextUserID = id + 1
	}

	clone := *user
	return &clone, nil
}

// ===== 报告 =====

func (s *MemoryStore) CreateReport(ctx context.Context, titulo, descripcion, ubicacion, categoria, imagenNombre, imagenTipo string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &models.Report{
		ID:           s.nextReportID,
		Titulo:       titulo,
		Descripcion:  descripcion,
		Ubicacion:    ubicacion,
		Categoria:    categoria,
		Estado:       models.DefaultReportStatus,
		ImagenNombre: imagenNombre,
		ImagenTipo:   imagenTipo,
		CreatedAt:    time.Now(),
	}
	s.reports[report.ID] = report
	s.nextReportID++

	clone := *report
	return &clone, nil
}

func (s *MemoryStore) GetReportByID(ctx context.Context, id int) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *MemoryStore) ListReports(ctx context.Context) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		reports = append(reports, *r)
	}
	// 最新的在前
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID > reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

func (s *MemoryStore) UpdateReportPartial(ctx context.Context, id int, fields map[string]string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	r, ok := s.reports[id]

	for column, value := range fields {
		if !updatableReportColumns[column] {
			continue
		}
		applied++
		if !ok {
			continue
		}
		switch column {
		case "titulo":
			r.Titulo = value
		case "descripcion":
			r.Descripcion = value
		case "ubicacion":
			r.Ubicacion = value
		case "categoria":
			r.Categoria = value
		}
	}

	if applied == 0 {
		return nil, ErrNoFields
	}
	if !ok {
		return nil, ErrNotFound
	}

	clone := *r
	return &clone, nil
}

func (s *MemoryStore) DeleteReport(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return false, nil
	}
	delete(s.reports, id)
	return true, nil
}

func (s *MemoryStore) CountReports(ctx context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().AddDate(0, 0, -7)
	recent := 0
	for _, r := range s.reports {
		if r.CreatedAt.After(cutoff) {
			recent++
		}
	}
	return len(s.reports), recent, nil
}

// ===== 社区 =====

func (s *MemoryStore) CreateCommunity(ctx context.Context, ownerID int, nombre, descripcion, categoria, tags string) (*models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	community := &models.Community{
		ID:          s.nextCommunityID,
		IDUsuario:   ownerID,
		Nombre:      nombre,
		Descripcion: descripcion,
		Categoria:   categoria,
		Tags:        tags,
		Estado:      "activa",
		CreatedAt:   time.Now(),
	}
	s.communities[community.ID] = community
	s.nextCommunityID++

	// 创建者自动成为管理员成员，与社区创建同生共死
	s.memberships[membershipKey(community.ID, ownerID)] = &models.Membership{
		IDComunidad: community.ID,
		IDUsuario:   ownerID,
		EsAdmin:     true,
		FechaUnion:  time.Now(),
	}

	clone := *community
	return &clone, nil
}

func (s *MemoryStore) view(c *models.Community, callerID int) models.CommunityView {
	v := models.CommunityView{Community: *c}
	for _, m := range s.memberships {
		if m.IDComunidad != c.ID {
			continue
		}
		v.MemberCount++
		if m.IDUsuario == callerID {
			v.IsJoined = true
			v.IsAdmin = m.EsAdmin
		}
	}
	return v
}

func (s *MemoryStore) GetCommunity(ctx context.Context, id, callerID int) (*models.CommunityView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.communities[id]
	if !ok {
		return nil, ErrNotFound
	}
	v := s.view(c, callerID)
	return &v, nil
}

func (s *MemoryStore) ListCommunities(ctx context.Context, callerID int) ([]models.CommunityView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]models.CommunityView, 0, len(s.communities))
	for _, c := range s.communities {
		views = append(views, s.view(c, callerID))
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

func (s *MemoryStore) ListUserCommunities(ctx context.Context, userID int) ([]models.CommunityView, error) {
	all, err := s.ListCommunities(ctx, userID)
	if err != nil {
		return nil, err
	}

	var joined []models.CommunityView
	for _, v := range all {
		if v.IsJoined {
			joined = append(joined, v)
		}
	}
	return joined, nil
}

func (s *MemoryStore) JoinCommunity(ctx context.Context, communityID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey(communityID, userID)
	if _, ok := s.memberships[key]; ok {
		return ErrDuplicate
	}

	s.memberships[key] = &models.Membership{
		IDComunidad: communityID,
		IDUsuario:   userID,
		FechaUnion:  time.Now(),
	}
	return nil
}

func (s *MemoryStore) LeaveCommunity(ctx context.Context, communityID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey(communityID, userID)
	if _, ok := s.memberships[key]; !ok {
		return ErrNotMember
	}
	delete(s.memberships, key)
	return nil
}

func (s *MemoryStore) EnsureMembership(ctx context.Context, communityID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 社区不存在时静默跳过，聊天路径保持宽容
	if _, ok := s.communities[communityID]; !ok {
		return nil
	}

	key := membershipKey(communityID, userID)
	if _, ok := s.memberships[key]; ok {
		return nil
	}

	s.memberships[key] = &models.Membership{
		IDComunidad: communityID,
		IDUsuario:   userID,
		FechaUnion:  time.Now(),
	}
	return nil
}

// ===== 消息 =====

func (s *MemoryStore) ListMessages(ctx context.Context, communityID, limit, offset int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Message
	for _, m := range s.messages {
		if m.IDComunidad == communityID {
			matched = append(matched, m)
		}
	}
	// 最新的在前
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	messages := make([]models.Message, 0, len(matched))
	for _, m := range matched {
		messages = append(messages, *m)
	}
	return messages, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, communityID, userID int, texto string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userName := fmt.Sprintf("Usuario %d", userID)
	if u, ok := s.users[userID]; ok {
		userName = u.Nombre
	}

	msg := &models.Message{
		ID:          s.nextMessageID,
		IDComunidad: communityID,
		IDUsuario:   userID,
		UserName:    userName,
		Texto:       texto,
		CreatedAt:   time.Now(),
	}
	s.messages = append(s.messages, msg)
	s.nextMessageID++

	clone := *msg
	return &clone, nil
}

func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
