package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/config"
	"github.com/KevinZepeda39/App-Ciudad-Sv/pkg/models"
)

// Store 数据存储接口。处理器只依赖这个接口：
// 连接正常时注入PostgresStore，连不上时注入UnavailableStore哨兵，
// 不再用模块级布尔标志逐处判断连接状态。
type Store interface {
	// 用户
	CreateUser(ctx context.Context, nombre, email, password string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int, nombre, email, password string) (*models.User, error)
	// EnsureUser 自动补建占位用户（开发便利策略，见社区聊天流程）
	EnsureUser(ctx context.Context, id int) (*models.User, error)

	// 报告
	CreateReport(ctx context.Context, titulo, descripcion, ubicacion, categoria, imagenNombre, imagenTipo string) (*models.Report, error)
	GetReportByID(ctx context.Context, id int) (*models.Report, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	UpdateReportPartial(ctx context.Context, id int, fields map[string]string) (*models.Report, error)
	DeleteReport(ctx context.Context, id int) (bool, error)
	// CountReports 返回报告总数和最近7天的数量
	CountReports(ctx context.Context) (total int, recent int, err error)

	// 社区
	CreateCommunity(ctx context.Context, ownerID int, nombre, descripcion, categoria, tags string) (*models.Community, error)
	GetCommunity(ctx context.Context, id, callerID int) (*models.CommunityView, error)
	ListCommunities(ctx context.Context, callerID int) ([]models.CommunityView, error)
	ListUserCommunities(ctx context.Context, userID int) ([]models.CommunityView, error)
	JoinCommunity(ctx context.Context, communityID, userID int) error
	LeaveCommunity(ctx context.Context, communityID, userID int) error
	// EnsureMembership 不存在时自动补建成员资格（宽容聊天策略）
	EnsureMembership(ctx context.Context, communityID, userID int) error

	// 消息
	ListMessages(ctx context.Context, communityID, limit, offset int) ([]models.Message, error)
	CreateMessage(ctx context.Context, communityID, userID int, texto string) (*models.Message, error)

	HealthCheck(ctx context.Context) error
	Close() error
}

// New 根据配置选择存储实现。连接失败时返回UnavailableStore，
// 由调用方决定是否容忍（开发环境容忍，生产环境致命）。
func New(cfg *config.Config, logger zerolog.Logger) Store {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewPostgresStore(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Error().Err(err).Msg("❌ database connection failed, serving fallback data")
		return NewUnavailableStore()
	}

	logger.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("✅ database connected")
	return store
}
