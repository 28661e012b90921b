package handler

import "mokki/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	House    *HouseHandler
	Catalog  *CatalogHandler
	Window   *WindowHandler
	Claim    *ClaimHandler
	Stay     *StayHandler
	History  *HistoryHandler
	Export   *ExportHandler
	Calendar *CalendarHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		House:    NewHouseHandler(svc.House),
		Catalog:  NewCatalogHandler(svc.Catalog),
		Window:   NewWindowHandler(svc.Window),
		Claim:    NewClaimHandler(svc.Claim),
		Stay:     NewStayHandler(svc.Stay),
		History:  NewHistoryHandler(svc.History),
		Export:   NewExportHandler(svc.Export),
		Calendar: NewCalendarHandler(svc.Calendar),
	}
}
