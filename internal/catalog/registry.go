package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kinoshop-next/internal/config"
)

var (
	ErrMovieIDUnresolved = errors.New("movie id unresolved")
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidCatalog    = errors.New("invalid catalog")
)

var (
	productSuffixPattern = regexp.MustCompile(`product[-_]?(\d+)`)
	digitsPattern        = regexp.MustCompile(`(\d+)`)
)

// Product 目录商品
type Product struct {
	MovieID       uint     `json:"movie_id"`
	Slug          string   `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	Price         int64    `json:"price"`
	Image         string   `json:"image"`
	Aliases       []string `json:"aliases,omitempty"`
}

// Registry 商品标识与远端影片 ID 的双向映射
type Registry struct {
	products     []Product
	byMovieID    map[uint]int
	byName       map[string]int
	defaultImage string
}

// NewRegistry 从配置构建目录
func NewRegistry(products []config.ProductConfig, defaultImage string) (*Registry, error) {
	r := &Registry{
		products:     make([]Product, 0, len(products)),
		byMovieID:    make(map[uint]int, len(products)),
		byName:       make(map[string]int, len(products)*2),
		defaultImage: strings.TrimSpace(defaultImage),
	}
	for _, item := range products {
		slug := normalizeName(item.Slug)
		if item.MovieID == 0 || slug == "" {
			return nil, fmt.Errorf("%w: product requires movie_id and slug (%q)", ErrInvalidCatalog, item.Slug)
		}
		if _, exists := r.byMovieID[item.MovieID]; exists {
			return nil, fmt.Errorf("%w: duplicate movie_id %d", ErrInvalidCatalog, item.MovieID)
		}
		idx := len(r.products)
		names := append([]string{slug}, item.Aliases...)
		for _, name := range names {
			key := normalizeName(name)
			if key == "" {
				continue
			}
			if owner, exists := r.byName[key]; exists && owner != idx {
				return nil, fmt.Errorf("%w: name %q used by movie_id %d", ErrInvalidCatalog, key, r.products[owner].MovieID)
			}
			r.byName[key] = idx
		}
		image := strings.TrimSpace(item.Image)
		if image == "" {
			image = r.defaultImage
		}
		r.byMovieID[item.MovieID] = idx
		r.products = append(r.products, Product{
			MovieID:       item.MovieID,
			Slug:          slug,
			Title:         strings.TrimSpace(item.Title),
			OriginalTitle: strings.TrimSpace(item.OriginalTitle),
			Price:         item.Price,
			Image:         image,
			Aliases:       append([]string(nil), item.Aliases...),
		})
	}
	return r, nil
}

// ResolveMovieID 将商品标识解析为远端影片 ID
// 依次尝试：纯数字、slug/别名、productN 后缀、任意数字段；数字必须已登记
func (r *Registry) ResolveMovieID(productID string) (uint, bool) {
	name := normalizeName(productID)
	if name == "" {
		return 0, false
	}
	if id, ok := r.registeredNumber(name); ok {
		return id, true
	}
	if idx, ok := r.byName[name]; ok {
		return r.products[idx].MovieID, true
	}
	for _, pattern := range []*regexp.Regexp{productSuffixPattern, digitsPattern} {
		match := pattern.FindStringSubmatch(name)
		if len(match) < 2 {
			continue
		}
		if id, ok := r.registeredNumber(match[1]); ok {
			return id, true
		}
	}
	return 0, false
}

// ProductID 远端影片 ID 对应的商品标识，未登记时为 movie-<id>
func (r *Registry) ProductID(movieID uint) string {
	if idx, ok := r.byMovieID[movieID]; ok {
		return r.products[idx].Slug
	}
	return fmt.Sprintf("movie-%d", movieID)
}

// ByMovieID 按远端 ID 查找
func (r *Registry) ByMovieID(movieID uint) (Product, bool) {
	idx, ok := r.byMovieID[movieID]
	if !ok {
		return Product{}, false
	}
	return r.products[idx], true
}

// Lookup 按商品标识查找（支持别名与数字回退）
func (r *Registry) Lookup(productID string) (Product, bool) {
	id, ok := r.ResolveMovieID(productID)
	if !ok {
		return Product{}, false
	}
	return r.ByMovieID(id)
}

// List 全部商品（配置顺序）
func (r *Registry) List() []Product {
	out := make([]Product, len(r.products))
	copy(out, r.products)
	return out
}

// DefaultImage 缺省海报
func (r *Registry) DefaultImage() string {
	return r.defaultImage
}

func (r *Registry) registeredNumber(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	if _, ok := r.byMovieID[uint(n)]; !ok {
		return 0, false
	}
	return uint(n), true
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
