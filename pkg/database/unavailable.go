package database

import (
	"context"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
)

// UnavailableStore 数据库连不上时注入的哨兵实现，
// 所有操作统一返回ErrUnavailable，由处理器决定降级策略
// （读路径返回静态兜底数据，写路径返回503）。
type UnavailableStore struct{}

// NewUnavailableStore 创建哨兵存储实例
func NewUnavailableStore() *UnavailableStore {
	return &UnavailableStore{}
}

func (s *UnavailableStore) CreateUser(ctx context.Context, nombre, email, password string) (*models.User, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) UpdateUser(ctx context.Context, id int, nombre, email, password string) (*models.User, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) EnsureUser(ctx context.Context, id int) (*models.User, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) CreateReport(ctx context.Context, titulo, descripcion, ubicacion, categoria, imagenNombre, imagenTipo string) (*models.Report, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) GetReportByID(ctx context.Context, id int) (*models.Report, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) ListReports(ctx context.Context) ([]models.Report, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) UpdateReportPartial(ctx context.Context, id int, fields map[string]string) (*models.Report, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) DeleteReport(ctx context.Context, id int) (bool, error) {
	return false, ErrUnavailable
}

func (s *UnavailableStore) CountReports(ctx context.Context) (int, int, error) {
	return 0, 0, ErrUnavailable
}

func (s *UnavailableStore) CreateCommunity(ctx context.Context, ownerID int, nombre, descripcion, categoria, tags string) (*models.Community, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) GetCommunity(ctx context.Context, id, callerID int) (*models.CommunityView, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) ListCommunities(ctx context.Context, callerID int) ([]models.CommunityView, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) ListUserCommunities(ctx context.Context, userID int) ([]models.CommunityView, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) JoinCommunity(ctx context.Context, communityID, userID int) error {
	return ErrUnavailable
}

func (s *UnavailableStore) LeaveCommunity(ctx context.Context, communityID, userID int) error {
	return ErrUnavailable
}

func (s *UnavailableStore) EnsureMembership(ctx context.Context, communityID, userID int) error {
	return ErrUnavailable
}

func (s *UnavailableStore) ListMessages(ctx context.Context, communityID, limit, offset int) ([]models.Message, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) CreateMessage(ctx context.Context, communityID, userID int, texto string) (*models.Message, error) {
	return nil, ErrUnavailable
}

func (s *UnavailableStore) HealthCheck(ctx context.Context) error {
	return ErrUnavailable
}

func (s *UnavailableStore) Close() error {
	return nil
}
