package application

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/config"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/core"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/hooks"
	"github.com/grand-thief-cash/chaos/app/projects/servicemgr/internal/registry"
)

// startMargin 组件启动超时需覆盖 link 等待时间
const startMargin = 10 * time.Second

type App struct {
	container        *core.Container
	lifecycleManager *core.LifecycleManager
	configManager    *config.ConfigManager

	bootOnce sync.Once
	bootErr  error
}

func NewApp(env string, configPath string) *App {
	abs := configPath
	if p, err := filepath.Abs(configPath); err == nil {
		abs = p
	}
	container := core.NewContainer()
	hm := hooks.NewManager()
	// 默认钩子名称固定，重复注册只会发生在编程错误时
	if err := hooks.RegisterDefaults(hm); err != nil {
		panic(err)
	}
	return &App{
		configManager:    config.NewConfigManager(env, abs),
		container:        container,
		lifecycleManager: core.NewLifecycleManager(container, hm),
	}
}

func (app *App) boot() error {
	app.bootOnce.Do(func() {
		if err := app.configManager.LoadConfig(); err != nil {
			app.bootErr = fmt.Errorf("load config %s (env %s) failed: %w", app.configManager.Path(), app.configManager.Env(), err)
			return
		}
		cfg := app.configManager.GetConfig()
		if cfg.Link != nil && cfg.Link.Enabled && cfg.Link.Timeout+startMargin > 30*time.Second {
			app.lifecycleManager.SetTimeout(cfg.Link.Timeout + startMargin)
		}
		if err := registry.BuildAndRegisterAll(cfg, app.container); err != nil {
			app.bootErr = fmt.Errorf("register components failed: %w", err)
		}
	})
	return app.bootErr
}

// Boot loads config and builds components without starting them.
func (app *App) Boot() error { return app.boot() }

func (app *App) GetComponent(name string) (core.Component, error) {
	return app.container.Resolve(name)
}

func (app *App) GetConfig() *config.AppConfig {
	return app.configManager.GetConfig()
}

func (app *App) AddHook(name string, phase hooks.Phase, fn hooks.HookFunc, priority int) error {
	return app.lifecycleManager.AddHook(name, phase, fn, priority)
}

// Run 监听 SIGINT/SIGTERM，收到信号后优雅退出
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.RunWithContext(ctx)
}

// RunWithContext starts components and blocks until context done,
// then performs graceful shutdown.
func (app *App) RunWithContext(ctx context.Context) error {
	if err := app.boot(); err != nil {
		return err
	}

	if err := app.lifecycleManager.StartAll(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	app.lifecycleManager.StopAll(context.Background())
	return nil
}

func (app *App) Shutdown(ctx context.Context) {
	app.lifecycleManager.StopAll(ctx)
}
