package catalog

import (
	"errors"
	"testing"

	"github.com/kinoshop-next/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProducts() []config.ProductConfig {
	return []config.ProductConfig{
		{MovieID: 7, Slug: "interstellar", Title: "Интерстеллар", OriginalTitle: "Interstellar", Price: 499, Image: "images/poster7.jpg", Aliases: []string{"product7"}},
		{MovieID: 11, Slug: "eternity", Title: "Вечные", OriginalTitle: "Eternals", Price: 450, Aliases: []string{"eternals", "product11"}},
		{MovieID: 15, Slug: "7-sisters", Title: "Тайна семи сестер", Price: 399, Aliases: []string{"seven-sisters"}},
	}
}

func TestResolveMovieID(t *testing.T) {
	reg, err := NewRegistry(testProducts(), "images/default.jpg")
	require.NoError(t, err)

	cases := []struct {
		input string
		want  uint
		ok    bool
	}{
		{input: "interstellar", want: 7, ok: true},
		{input: "  Interstellar ", want: 7, ok: true},
		{input: "eternals", want: 11, ok: true},
		{input: "7-sisters", want: 15, ok: true},
		{input: "seven-sisters", want: 15, ok: true},
		{input: "7", want: 7, ok: true},
		{input: "product-11", want: 11, ok: true},
		{input: "product_7", want: 7, ok: true},
		{input: "movie-7", want: 7, ok: true},
		{input: "movie-42", ok: false},
		{input: "99", ok: false},
		{input: "unknown-slug", ok: false},
		{input: "", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, ok := reg.ResolveMovieID(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProductIDIsInverseOfResolve(t *testing.T) {
	reg, err := NewRegistry(testProducts(), "")
	require.NoError(t, err)

	for _, p := range reg.List() {
		id, ok := reg.ResolveMovieID(reg.ProductID(p.MovieID))
		require.True(t, ok)
		assert.Equal(t, p.MovieID, id)
	}
	assert.Equal(t, "movie-42", reg.ProductID(42))
}

func TestRegistryDefaultsImage(t *testing.T) {
	reg, err := NewRegistry(testProducts(), "images/default.jpg")
	require.NoError(t, err)

	p, ok := reg.Lookup("eternals")
	require.True(t, ok)
	assert.Equal(t, "images/default.jpg", p.Image)
	assert.Equal(t, "eternity", p.Slug)
}

func TestNewRegistryRejectsConflicts(t *testing.T) {
	_, err := NewRegistry([]config.ProductConfig{
		{MovieID: 1, Slug: "menu"},
		{MovieID: 1, Slug: "other"},
	}, "")
	assert.True(t, errors.Is(err, ErrInvalidCatalog))

	_, err = NewRegistry([]config.ProductConfig{
		{MovieID: 1, Slug: "menu"},
		{MovieID: 2, Slug: "scream", Aliases: []string{"MENU"}},
	}, "")
	assert.True(t, errors.Is(err, ErrInvalidCatalog))

	_, err = NewRegistry([]config.ProductConfig{{Slug: "no-id"}}, "")
	assert.True(t, errors.Is(err, ErrInvalidCatalog))
}

func TestPromoCatalogLookup(t *testing.T) {
	promos, err := NewPromoCatalog([]config.PromoCodeConfig{
		{Code: "OSCAR2025", Discount: 0.2, Name: "Скидка 20%"},
		{Code: "movie10", Discount: 0.1},
	})
	require.NoError(t, err)

	p, ok := promos.Lookup("  oscar2025 ")
	require.True(t, ok)
	assert.Equal(t, "OSCAR2025", p.Code)
	assert.InDelta(t, 0.2, p.Discount, 1e-9)

	p, ok = promos.Lookup("MOVIE10")
	require.True(t, ok)
	assert.Equal(t, "MOVIE10", p.Name)

	_, ok = promos.Lookup("FREE100")
	assert.False(t, ok)
}

func TestPromoCatalogRejectsBadDiscount(t *testing.T) {
	for _, discount := range []float64{0, 1, 1.5, -0.1} {
		_, err := NewPromoCatalog([]config.PromoCodeConfig{{Code: "X", Discount: discount}})
		assert.True(t, errors.Is(err, ErrInvalidCatalog), "discount %v", discount)
	}
}
