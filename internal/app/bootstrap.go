package app

import (
	"errors"
	"net"

	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/provider"
	"github.com/kinoshop-next/internal/router"
	"github.com/kinoshop-next/internal/worker"
)

// BuildRunner 按模式组装服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	opts := Options{Config: cfg, Mode: mode}

	container, err := provider.NewContainer(cfg, models.DB)
	if err != nil {
		return nil, err
	}

	var services []Service
	if opts.runsHTTP() {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(listenAddr(cfg), engine))
	}
	if opts.runsWorker() {
		watch, err := worker.NewService(cfg.Identity, container.IdentityService, container.CartService, container.StorageWatcher)
		if err != nil {
			return nil, err
		}
		services = append(services, watch)
	}
	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", listenAddr(opts.Config),
		"mode", opts.Mode,
		"storage", opts.Config.Storage.Driver,
		"remote", opts.Config.Remote.BaseURL,
	)
	return RunWithOptions(runner, opts)
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
}
