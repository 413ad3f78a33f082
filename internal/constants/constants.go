package constants

// 本地存储键
const (
	StorageKeyCurrentUser    = "currentUser"
	StorageKeyRememberedUser = "rememberedUser"
	StorageKeyGuestCart      = "guest_cart"
	StorageKeyGuestPromo     = "guest_promo"
	StorageKeyCartPrefix     = "cart_"
	StorageKeyPromoPrefix    = "promo_"
)

// 购物车归属
const (
	CartOwnerGuest = "guest"
)

// 购物车状态
const (
	CartStateLoading = "loading"
	CartStateReady   = "ready"
)

// 远端购物车动作
const (
	RemoteCartActionGet    = "get"
	RemoteCartActionUpdate = "update"
	RemoteCartActionClear  = "clear"
)

// 本地存储驱动
const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

// 表单字段（用于校验错误定位）
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldTerms           = "terms"
	FieldGeneral         = "general"
)

// 购物车同步告警
const (
	CartWarningRemoteSyncFailed   = "cart.remote_sync_failed"
	CartWarningMovieIDUnresolved  = "cart.movie_id_unresolved"
	CartWarningRemoteFetchFailed  = "cart.remote_fetch_failed"
	CartWarningStoragePersistFail = "cart.storage_persist_failed"
)
