package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kinoshop-next/internal/app"
	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
	ansiBlue  = "\033[34m"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	printStartupBanner(cfg, mode)

	if strings.TrimSpace(cfg.OMDb.APIKey) == "" {
		logger.Warnw("omdb_api_key_missing", "hint", "metadata enrichment disabled")
	}

	// 本地存储使用数据库时初始化连接
	if cfg.Storage.UsesDatabase() {
		if err := ensureSQLiteDir(cfg.Storage); err != nil {
			stdLog.Fatalf("创建存储目录失败: %v", err)
		}
		if err := models.InitDB(cfg.Storage.Driver, cfg.Storage.DSN, models.DBPoolConfig{
			MaxOpenConns:           cfg.Storage.Pool.MaxOpenConns,
			MaxIdleConns:           cfg.Storage.Pool.MaxIdleConns,
			ConnMaxLifetimeSeconds: cfg.Storage.Pool.ConnMaxLifetimeSeconds,
			ConnMaxIdleTimeSeconds: cfg.Storage.Pool.ConnMaxIdleTimeSeconds,
		}); err != nil {
			stdLog.Fatalf("数据库初始化失败: %v", err)
		}
		if err := models.AutoMigrate(models.DB); err != nil {
			stdLog.Fatalf("数据库迁移失败: %v", err)
		}
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

// ensureSQLiteDir sqlite 文件所在目录不存在时创建
func ensureSQLiteDir(cfg config.StorageConfig) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver != "" && driver != "sqlite" {
		return nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" || strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func printStartupBanner(cfg *config.Config, mode string) {
	fmt.Println(ansiCyan + ansiBold + "KinoShop storefront" + ansiReset)
	fmt.Println(ansiBlue + "• Mode:    " + mode + ansiReset)
	fmt.Println(ansiBlue + "• Listen:  " + cfg.Server.Host + ":" + cfg.Server.Port + ansiReset)
	fmt.Println(ansiBlue + "• Remote:  " + cfg.Remote.BaseURL + ansiReset)
	fmt.Println(ansiBlue + "• Storage: " + cfg.Storage.Driver + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}
