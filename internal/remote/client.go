package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/constants"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/models"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// Client 远端商城 API 客户端
// 会话依赖 cookie，客户端自带 cookie jar
type Client struct {
	baseURL    *url.URL
	paths      config.RemotePathsConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        *zap.SugaredLogger
}

// NewClient 创建远端客户端，httpClient 为空时按配置创建
func NewClient(cfg config.RemoteConfig, httpClient *http.Client) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("remote base_url is empty")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse remote base_url: %w", err)
	}
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("init cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: cfg.Timeout(), Jar: jar}
	}

	c := &Client{
		baseURL:    base,
		paths:      cfg.Paths,
		httpClient: httpClient,
		log:        logger.Named("remote"),
	}
	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(cfg.Breaker, c.log)
	}
	return c, nil
}

func newBreaker(cfg config.BreakerConfig, log *zap.SugaredLogger) *gobreaker.CircuitBreaker[[]byte] {
	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	openFor := time.Duration(cfg.OpenSeconds) * time.Second
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "remote_api",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("remote_breaker_state_changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Register 注册
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.Identity, error) {
	return c.authenticate(ctx, c.paths.Register, req)
}

// Login 登录
func (c *Client) Login(ctx context.Context, req LoginRequest) (*models.Identity, error) {
	return c.authenticate(ctx, c.paths.Login, req)
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*models.Identity, error) {
	env, err := c.call(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	identity := env.User.Identity()
	if !identity.Valid() {
		return nil, fmt.Errorf("%w: user missing", ErrInvalidResponse)
	}
	return identity, nil
}

// Logout 注销远端会话
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodGet, c.paths.Logout, nil)
	return err
}

// CheckUser 存活检查，远端返回 success=false 时为 (false, nil)
func (c *Client) CheckUser(ctx context.Context, userID uint) (bool, error) {
	_, err := c.call(ctx, http.MethodPost, c.paths.CheckUser, checkUserRequest{UserID: userID})
	if err != nil {
		if _, ok := AsServerError(err); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetCart 拉取远端购物车
func (c *Client) GetCart(ctx context.Context, userID uint) ([]CartLine, error) {
	env, err := c.call(ctx, http.MethodPost, c.paths.Cart, cartRequest{
		Action: constants.RemoteCartActionGet,
		UserID: userID,
	})
	if err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(env.Cart)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: cart is not an array", ErrInvalidResponse)
	}
	var lines []CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return lines, nil
}

// UpdateCartItem 远端 upsert，quantity 为 0 表示删除
func (c *Client) UpdateCartItem(ctx context.Context, userID, movieID uint, quantity int) error {
	_, err := c.call(ctx, http.MethodPost, c.paths.Cart, cartRequest{
		Action:   constants.RemoteCartActionUpdate,
		UserID:   userID,
		MovieID:  movieID,
		Quantity: &quantity,
	})
	return err
}

// ClearCart 清空远端购物车
func (c *Client) ClearCart(ctx context.Context, userID uint) error {
	_, err := c.call(ctx, http.MethodPost, c.paths.Cart, cartRequest{
		Action: constants.RemoteCartActionClear,
		UserID: userID,
	})
	return err
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}) (envelope, error) {
	payload, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !env.Success {
		return env, env.failure()
	}
	return env, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	do := func() ([]byte, error) {
		return c.send(ctx, method, path, body)
	}
	if c.breaker == nil {
		return do()
	}
	payload, err := c.breaker.Execute(do)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return payload, err
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s status %d", ErrNetwork, method, target.Path, resp.StatusCode)
	}
	return payload, nil
}
