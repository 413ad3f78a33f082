package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kinoshop-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Identity IdentityConfig `mapstructure:"identity"`
	Cart     CartConfig     `mapstructure:"cart"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Promo    PromoConfig    `mapstructure:"promo"`
	OMDb     OMDbConfig     `mapstructure:"omdb"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig 本地服务配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// StoragePoolConfig 本地存储连接池配置
type StoragePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// StorageConfig 本地持久化配置
type StorageConfig struct {
	Driver string            `mapstructure:"driver"` // sqlite / postgres / redis / memory
	DSN    string            `mapstructure:"dsn"`
	Pool   StoragePoolConfig `mapstructure:"pool"`
}

// UsesDatabase 是否使用 gorm 数据库作为本地存储
func (c StorageConfig) UsesDatabase() bool {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "", "sqlite", "postgres", "postgresql":
		return true
	}
	return false
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// RemotePathsConfig 远端接口路径
type RemotePathsConfig struct {
	Register  string `mapstructure:"register"`
	Login     string `mapstructure:"login"`
	Logout    string `mapstructure:"logout"`
	CheckUser string `mapstructure:"check_user"`
	Cart      string `mapstructure:"cart"`
}

// BreakerConfig 熔断配置
type BreakerConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxFailures int  `mapstructure:"max_failures"`
	OpenSeconds int  `mapstructure:"open_seconds"`
}

// RemoteConfig 远端商城接口配置
type RemoteConfig struct {
	BaseURL        string            `mapstructure:"base_url"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	Paths          RemotePathsConfig `mapstructure:"paths"`
	Breaker        BreakerConfig     `mapstructure:"breaker"`
}

// Timeout 远端请求超时
func (c RemoteConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IdentityConfig 身份监听配置
type IdentityConfig struct {
	PollIntervalSeconds int  `mapstructure:"poll_interval_seconds"`
	VerifyOnStart       bool `mapstructure:"verify_on_start"`
}

// PollInterval 身份轮询间隔
func (c IdentityConfig) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// CartConfig 购物车配置
type CartConfig struct {
	DebounceMS    int    `mapstructure:"debounce_ms"`
	DefaultImage  string `mapstructure:"default_image"`
	FallbackTitle string `mapstructure:"fallback_title"`
	FallbackPrice int64  `mapstructure:"fallback_price"`
}

// Debounce 数量按钮防抖间隔
func (c CartConfig) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// ProductConfig 商品目录条目
type ProductConfig struct {
	MovieID       uint     `mapstructure:"movie_id"`
	Slug          string   `mapstructure:"slug"`
	Title         string   `mapstructure:"title"`
	OriginalTitle string   `mapstructure:"original_title"`
	Price         int64    `mapstructure:"price"`
	Image         string   `mapstructure:"image"`
	Aliases       []string `mapstructure:"aliases"`
}

// CatalogConfig 商品目录配置
type CatalogConfig struct {
	Products []ProductConfig `mapstructure:"products"`
}

// PromoCodeConfig 促销码条目
type PromoCodeConfig struct {
	Code     string  `mapstructure:"code"`
	Discount float64 `mapstructure:"discount"`
	Name     string  `mapstructure:"name"`
}

// PromoConfig 促销码目录
type PromoConfig struct {
	Codes []PromoCodeConfig `mapstructure:"codes"`
}

// OMDbConfig 影片元数据接口配置
type OMDbConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit LoginRateLimitConfig `mapstructure:"login_rate_limit"`
	PasswordPolicy PasswordPolicyConfig `mapstructure:"password_policy"`
}

// LoginRateLimitConfig 登录限流配置
type LoginRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
}

// PasswordPolicyConfig 密码策略配置
type PasswordPolicyConfig struct {
	MinLength      int  `mapstructure:"min_length"`
	RequireUpper   bool `mapstructure:"require_upper"`
	RequireLower   bool `mapstructure:"require_lower"`
	RequireNumber  bool `mapstructure:"require_number"`
	RequireSpecial bool `mapstructure:"require_special"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	v := viper.GetViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../")   // 如果从 cmd/storefront 运行
	v.AddConfigPath("./etc") // etc 文件夹

	cfg, err := load(v, true)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

func load(v *viper.Viper, readFile bool) (*Config, error) {
	setDefaults(v)

	// 环境变量支持 (例如 remote.base_url -> REMOTE_BASE_URL)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if readFile {
		if err := v.ReadInConfig(); err != nil {
			logger.Warnw("config_file_read_failed",
				"error", err,
				"fallback", "env_or_defaults",
			)
		} else {
			logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "storefront.log")
	v.SetDefault("log.level", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "./db/storefront.db")
	v.SetDefault("storage.pool.max_open_conns", 1)
	v.SetDefault("storage.pool.max_idle_conns", 1)
	v.SetDefault("storage.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("storage.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "kino")
	v.SetDefault("remote.base_url", "http://127.0.0.1/api")
	v.SetDefault("remote.timeout_seconds", 10)
	v.SetDefault("remote.paths.register", "register.php")
	v.SetDefault("remote.paths.login", "login.php")
	v.SetDefault("remote.paths.logout", "logout.php")
	v.SetDefault("remote.paths.check_user", "check-user.php")
	v.SetDefault("remote.paths.cart", "cart.php")
	v.SetDefault("remote.breaker.enabled", true)
	v.SetDefault("remote.breaker.max_failures", 5)
	v.SetDefault("remote.breaker.open_seconds", 30)
	v.SetDefault("identity.poll_interval_seconds", 5)
	v.SetDefault("identity.verify_on_start", true)
	v.SetDefault("cart.debounce_ms", 500)
	v.SetDefault("cart.default_image", "images/poster-default.jpg")
	v.SetDefault("cart.fallback_title", "Фильм %d")
	v.SetDefault("cart.fallback_price", 499)
	v.SetDefault("catalog.products", defaultProducts())
	v.SetDefault("promo.codes", []map[string]interface{}{
		{"code": "OSCAR2025", "discount": 0.2, "name": "Скидка 20% по промокоду OSCAR2025"},
		{"code": "MOVIE10", "discount": 0.1, "name": "Скидка 10% по промокоду MOVIE10"},
	})
	v.SetDefault("omdb.enabled", true)
	v.SetDefault("omdb.api_key", "")
	v.SetDefault("omdb.base_url", "https://www.omdbapi.com/")
	v.SetDefault("omdb.timeout_seconds", 10)
	v.SetDefault("omdb.cache_ttl_seconds", 86400)
	v.SetDefault("omdb.requests_per_second", 2)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_attempts", 5)
	v.SetDefault("security.password_policy.min_length", 8)
	v.SetDefault("security.password_policy.require_upper", false)
	v.SetDefault("security.password_policy.require_lower", false)
	v.SetDefault("security.password_policy.require_number", false)
	v.SetDefault("security.password_policy.require_special", false)
}

func defaultProducts() []map[string]interface{} {
	type entry struct {
		id       uint
		slug     string
		title    string
		original string
		aliases  []string
	}
	entries := []entry{
		{1, "hunger-games", "Голодные игры", "The Hunger Games", nil},
		{2, "menu", "Меню", "The Menu", nil},
		{3, "three-daughters", "Три дочери", "His Three Daughters", nil},
		{4, "devil-wears-prada", "Дьявол носит Prada", "The Devil Wears Prada", nil},
		{5, "scream", "Крик", "Scream", nil},
		{6, "sloane", "Опасная игра Слоун", "Miss Sloane", []string{"miss-sloane"}},
		{7, "interstellar", "Интерстеллар", "Interstellar", nil},
		{8, "bohemian-rhapsody", "Богемская рапсодия", "Bohemian Rhapsody", nil},
		{9, "cruella", "Круэлла", "Cruella", nil},
		{10, "house-of-gucci", "Дом Gucci", "House of Gucci", nil},
		{11, "eternity", "Вечные", "Eternals", []string{"eternals"}},
		{12, "agatha-all", "Агата", "Agatha All Along", []string{"its-all-agatha"}},
		{13, "divergent", "Дивергент", "Divergent", nil},
		{14, "world-war-z", "Война миров Z", "World War Z", nil},
		{15, "7-sisters", "Тайна семи сестер", "What Happened to Monday", []string{"seven-sisters"}},
		{16, "doctor-strange", "Доктор Стрэндж", "Doctor Strange in the Multiverse of Madness", []string{"doctor-strange-multiverse-of-madness"}},
		{17, "terrifier-3", "Ужасающий 3", "Terrifier 3", nil},
		{18, "five-nights", "Пять ночей с Фредди", "Five Nights at Freddy's", []string{"five-nights-at-freddys"}},
	}
	products := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		aliases := append([]string{fmt.Sprintf("product%d", e.id)}, e.aliases...)
		products = append(products, map[string]interface{}{
			"movie_id":       e.id,
			"slug":           e.slug,
			"title":          e.title,
			"original_title": e.original,
			"price":          499,
			"image":          fmt.Sprintf("images/poster%d.jpg", e.id),
			"aliases":        aliases,
		})
	}
	return products
}
