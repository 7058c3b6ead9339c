package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tbarret/wagerbook/internal/announce"
	"github.com/tbarret/wagerbook/internal/book"
	"github.com/tbarret/wagerbook/internal/ledger"
	"github.com/tbarret/wagerbook/internal/settlement"
	"github.com/tbarret/wagerbook/internal/wager"
	"github.com/tbarret/wagerbook/pkg/cache"
	"github.com/tbarret/wagerbook/pkg/config"
	"github.com/tbarret/wagerbook/pkg/healthprobe"
	"github.com/tbarret/wagerbook/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	probe      *healthprobe.Probe
	httpServer *httpserver.Server
	engine     *settlement.Engine
	bookSvc    *book.Service
	ledger     ledger.Ledger
	store      wager.Store
	publisher  announce.Publisher
	feedCache  cache.Cache
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// Book exposes the placement service to CLI commands.
func (a *App) Book() *book.Service {
	return a.bookSvc
}

// SettleOnce runs a single full settlement sweep.
func (a *App) SettleOnce(ctx context.Context) {
	a.engine.RunOnce(ctx)
}
