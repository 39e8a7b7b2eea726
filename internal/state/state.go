package state

import (
	"culprit-hunt/internal/config"
	"culprit-hunt/internal/service"
)

type AppState struct {
	Cfg      *config.AppConfig
	TableSvc *service.TableService
}

func NewAppState(
	cfg *config.AppConfig,
	tableSvc *service.TableService,
) *AppState {
	return &AppState{
		Cfg:      cfg,
		TableSvc: tableSvc,
	}
}

// Close 停止状态机协程
func (as *AppState) Close() {
	as.TableSvc.Close()
}
