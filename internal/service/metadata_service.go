package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kinoshop-next/internal/cache"
	"github.com/kinoshop-next/internal/catalog"
	"github.com/kinoshop-next/internal/i18n"
	"github.com/kinoshop-next/internal/logger"
	"github.com/kinoshop-next/internal/metadata/omdb"
	"github.com/kinoshop-next/internal/models"
)

const (
	awardsMaxRunes      = 80
	awardsTruncateRunes = 77
)

var (
	awardsWinsPattern         = regexp.MustCompile(`(?i)(\d+)\s*wins?`)
	awardsNominationsPattern  = regexp.MustCompile(`(?i)(\d+)\s*nominations?`)
	awardsWonPattern          = regexp.MustCompile(`\bWon\b`)
	awardsWinsWordPattern     = regexp.MustCompile(`\bwins\b`)
	awardsNominationsWordExpr = regexp.MustCompile(`\bnominations\b`)
)

// MovieFetcher 影片元数据来源
type MovieFetcher interface {
	Enabled() bool
	FetchByTitle(ctx context.Context, title string) (*omdb.Movie, error)
}

// ProductMetadata 商品元数据（用于响应）
type ProductMetadata struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Year      string `json:"year,omitempty"`
	Country   string `json:"country,omitempty"`
	Awards    string `json:"awards,omitempty"`
	Rating    string `json:"imdb_rating,omitempty"`
}

// MetadataService 影片元数据服务
type MetadataService struct {
	registry *catalog.Registry
	fetcher  MovieFetcher
	cacheTTL time.Duration
}

// NewMetadataService 创建元数据服务
func NewMetadataService(registry *catalog.Registry, fetcher MovieFetcher, cacheTTL time.Duration) *MetadataService {
	return &MetadataService{registry: registry, fetcher: fetcher, cacheTTL: cacheTTL}
}

// Fetch 查询商品的影片元数据，奖项文本按语言格式化
func (s *MetadataService) Fetch(ctx context.Context, productID, locale string) (*ProductMetadata, error) {
	product, ok := s.registry.Lookup(productID)
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	title := strings.TrimSpace(product.OriginalTitle)
	if title == "" {
		title = omdb.CleanTitle(product.Title)
	}

	meta, err := s.lookup(ctx, title)
	if err != nil {
		return nil, err
	}
	return &ProductMetadata{
		ProductID: product.Slug,
		Title:     product.Title,
		Year:      meta.Year,
		Country:   meta.Country,
		Awards:    FormatAwards(meta.Awards, locale),
		Rating:    meta.Rating,
	}, nil
}

func (s *MetadataService) lookup(ctx context.Context, title string) (*models.MovieMetadata, error) {
	if cached, hit, err := cache.GetMovieMetadata(ctx, title); err != nil {
		logger.Warnw("metadata_cache_get_failed", "title", title, "error", err)
	} else if hit {
		if cached.Empty() {
			return nil, ErrMetadataNotFound
		}
		return cached, nil
	}

	if s.fetcher == nil || !s.fetcher.Enabled() {
		return nil, ErrMetadataUnavailable
	}
	movie, err := s.fetcher.FetchByTitle(ctx, title)
	switch {
	case errors.Is(err, omdb.ErrNotFound):
		return nil, ErrMetadataNotFound
	case errors.Is(err, omdb.ErrDisabled):
		return nil, ErrMetadataUnavailable
	case err != nil:
		logger.Warnw("metadata_fetch_failed", "title", title, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}

	meta := &models.MovieMetadata{
		Title:   omdb.Value(movie.Title),
		Year:    omdb.Value(movie.Year),
		Country: omdb.Value(movie.Country),
		Awards:  omdb.Value(movie.Awards),
		Rating:  omdb.Value(movie.ImdbRating),
	}
	if err := cache.SetMovieMetadata(ctx, title, meta, s.cacheTTL); err != nil {
		logger.Warnw("metadata_cache_set_failed", "title", title, "error", err)
	}
	if meta.Empty() {
		return nil, ErrMetadataNotFound
	}
	return meta, nil
}

// FormatAwards 压缩过长的奖项文本，俄语环境替换常见英文词
func FormatAwards(awards, locale string) string {
	text := strings.Replace(strings.TrimSpace(awards), " total", "", 1)
	if text == "" {
		return ""
	}
	if len([]rune(text)) > awardsMaxRunes {
		wins := awardsWinsPattern.FindStringSubmatch(text)
		noms := awardsNominationsPattern.FindStringSubmatch(text)
		if wins != nil && noms != nil {
			return i18n.Sprintf(locale, "metadata.awards_summary", wins[1], noms[1])
		}
		return string([]rune(text)[:awardsTruncateRunes]) + "..."
	}
	if locale != i18n.LocaleRU {
		return text
	}
	text = replaceFirst(awardsWonPattern, text, "Побед")
	text = replaceFirst(awardsWinsWordPattern, text, "побед")
	return replaceFirst(awardsNominationsWordExpr, text, "номинаций")
}

func replaceFirst(pattern *regexp.Regexp, text, repl string) string {
	loc := pattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + repl + text[loc[1]:]
}
