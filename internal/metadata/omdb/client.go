// Package omdb 提供 OMDb 影片元数据查询
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrDisabled = errors.New("omdb disabled")
	ErrNotFound = errors.New("omdb movie not found")
	ErrUpstream = errors.New("omdb upstream error")
)

const notAvailable = "N/A"

var yearSuffixPattern = regexp.MustCompile(`\(\d{4}\)`)

// Movie OMDb 返回的影片信息（未过滤）
type Movie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	ImdbRating string `json:"imdbRating"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// Client OMDb 客户端，出站请求受速率限制
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	log         *zap.SugaredLogger
}

// NewClient 创建 OMDb 客户端
func NewClient(cfg config.OMDbConfig, httpClient *http.Client) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://www.omdbapi.com/"
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if !cfg.Enabled {
		apiKey = ""
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:         logger.Named("omdb"),
	}
}

// Enabled 是否可用
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// CleanTitle 去掉标题中的 (YYYY)
func CleanTitle(title string) string {
	return strings.TrimSpace(yearSuffixPattern.ReplaceAllString(title, ""))
}

// FetchByTitle 按标题精确查询
func (c *Client) FetchByTitle(ctx context.Context, title string) (*Movie, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	title = CleanTitle(title)
	if title == "" {
		return nil, ErrNotFound
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("t", title)
	query.Set("apikey", c.apiKey)
	target := c.baseURL
	if strings.Contains(target, "?") {
		target += "&" + query.Encode()
	} else {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	var movie Movie
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&movie); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if movie.Response != "True" {
		c.log.Debugw("omdb_movie_not_found", "title", title, "error", movie.Error)
		return nil, ErrNotFound
	}
	return &movie, nil
}

// Value 过滤 N/A
func Value(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == notAvailable {
		return ""
	}
	return trimmed
}
