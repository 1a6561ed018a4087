package handler

import "gatepass/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Visit       *VisitHandler
	VisitorForm *VisitorFormHandler
	Lobby       *LobbyHandler
	Admin       *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Visit:       NewVisitHandler(svc.Visit),
		VisitorForm: NewVisitorFormHandler(svc.Visit),
		Lobby:       NewLobbyHandler(svc.Lobby, svc.Visit),
		Admin:       NewAdminHandler(svc.Sweeper),
	}
}
