package service

import (
	"go.uber.org/zap"

	"mokki/backend/config"
	"mokki/backend/internal/repository"
	"mokki/backend/pkg/jwt"
	"mokki/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	House    HouseService
	Catalog  CatalogService
	Window   WindowService
	Claim    ClaimService
	Stay     StayService
	History  HistoryService
	Export   ExportService
	Calendar CalendarService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	claimSvc := NewClaimService(repo, rdb, logger)
	historySvc := NewHistoryService(repo, cfg.Signup.HistoryWindowLimit, logger)

	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		House:    NewHouseService(repo, logger),
		Catalog:  NewCatalogService(repo, logger),
		Window:   NewWindowService(repo, rdb, logger),
		Claim:    claimSvc,
		Stay:     NewStayService(repo, claimSvc, logger),
		History:  historySvc,
		Export:   NewExportService(repo, historySvc, logger),
		Calendar: NewCalendarService(repo, logger),
	}
}
