package provider

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kinoshop-next/internal/cache"
	"github.com/kinoshop-next/internal/catalog"
	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/metadata/omdb"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/remote"
	"github.com/kinoshop-next/internal/repository"
	"github.com/kinoshop-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config

	// Clients
	RemoteClient *remote.Client
	OMDbClient   *omdb.Client

	// Catalog
	Registry *catalog.Registry
	Promos   *catalog.PromoCatalog

	// Repositories
	StorageRepo    repository.StorageRepository
	SessionRepo    repository.StorageRepository
	StorageWatcher repository.StorageWatcher

	// Services
	IdentityService *service.IdentityService
	CartService     *service.CartService
	UserAuthService *service.UserAuthService
	MetadataService *service.MetadataService
}

// NewContainer 初始化容器，db 为空时使用 models.DB
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c := &Container{Config: cfg}

	// 1. 初始化 Repositories
	if err := c.initRepositories(db); err != nil {
		return nil, err
	}

	// 2. 初始化 Clients 与 Catalog
	if err := c.initClients(); err != nil {
		return nil, err
	}

	// 3. 初始化 Services
	c.initServices()

	return c, nil
}

func (c *Container) initRepositories(db *gorm.DB) error {
	driver := strings.ToLower(strings.TrimSpace(c.Config.Storage.Driver))
	switch driver {
	case constants.StorageDriverRedis:
		client := cache.Client()
		if client == nil {
			return errors.New("storage driver redis requires redis.enabled")
		}
		c.StorageRepo = repository.NewRedisStorageRepository(client, cache.Prefix())
	case constants.StorageDriverMemory:
		c.StorageRepo = repository.NewMemoryStorageRepository()
	default:
		if db == nil {
			db = models.DB
		}
		if db == nil {
			return fmt.Errorf("storage driver %q requires an initialized database", driver)
		}
		c.StorageRepo = repository.NewGormStorageRepository(db)
	}
	if watcher, ok := c.StorageRepo.(repository.StorageWatcher); ok {
		c.StorageWatcher = watcher
	}
	// rememberedUser 仅在进程生命周期内有效
	c.SessionRepo = repository.NewMemoryStorageRepository()
	return nil
}

func (c *Container) initClients() error {
	remoteClient, err := remote.NewClient(c.Config.Remote, nil)
	if err != nil {
		return fmt.Errorf("init remote client: %w", err)
	}
	c.RemoteClient = remoteClient
	c.OMDbClient = omdb.NewClient(c.Config.OMDb, nil)

	registry, err := catalog.NewRegistry(c.Config.Catalog.Products, c.Config.Cart.DefaultImage)
	if err != nil {
		return err
	}
	c.Registry = registry
	promos, err := catalog.NewPromoCatalog(c.Config.Promo.Codes)
	if err != nil {
		return err
	}
	c.Promos = promos
	return nil
}

func (c *Container) initServices() {
	c.IdentityService = service.NewIdentityService(c.StorageRepo, c.SessionRepo, c.RemoteClient)
	c.CartService = service.NewCartService(c.IdentityService, c.StorageRepo, c.RemoteClient, c.Registry, c.Promos, service.CartOptions{
		FallbackTitle: c.Config.Cart.FallbackTitle,
		FallbackPrice: c.Config.Cart.FallbackPrice,
	})
	c.UserAuthService = service.NewUserAuthService(c.Config.Security.PasswordPolicy, c.RemoteClient, c.IdentityService, c.CartService)
	c.MetadataService = service.NewMetadataService(c.Registry, c.OMDbClient, time.Duration(c.Config.OMDb.CacheTTLSeconds)*time.Second)
}
