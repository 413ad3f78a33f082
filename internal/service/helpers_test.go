package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kinoshop-next/internal/catalog"
	"github.com/kinoshop-next/internal/config"
	"github.com/kinoshop-next/internal/models"
	"github.com/kinoshop-next/internal/remote"
	"github.com/kinoshop-next/internal/repository"

	"github.com/stretchr/testify/require"
)

type cartUpdate struct {
	UserID   uint
	MovieID  uint
	Quantity int
}

type fakeRemote struct {
	mu        sync.Mutex
	carts     map[uint][]remote.CartLine
	getErr    error
	updateErr error
	clearErr  error
	alive     map[uint]bool
	checkErr  error
	updates   []cartUpdate
	clears    []uint
	gets      int

	loginUser    *models.Identity
	loginErr     error
	registerUser *models.Identity
	registerErr  error
	logoutErr    error
	logouts      int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{carts: make(map[uint][]remote.CartLine), alive: make(map[uint]bool)}
}

func (f *fakeRemote) GetCart(_ context.Context, userID uint) ([]remote.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.carts[userID], nil
}

func (f *fakeRemote) UpdateCartItem(_ context.Context, userID, movieID uint, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, cartUpdate{UserID: userID, MovieID: movieID, Quantity: quantity})
	return f.updateErr
}

func (f *fakeRemote) ClearCart(_ context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears = append(f.clears, userID)
	return f.clearErr
}

func (f *fakeRemote) CheckUser(_ context.Context, userID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.alive[userID], nil
}

func (f *fakeRemote) Register(_ context.Context, _ remote.RegisterRequest) (*models.Identity, error) {
	return f.registerUser, f.registerErr
}

func (f *fakeRemote) Login(_ context.Context, _ remote.LoginRequest) (*models.Identity, error) {
	return f.loginUser, f.loginErr
}

func (f *fakeRemote) Logout(_ context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return f.logoutErr
}

func (f *fakeRemote) lastUpdate() cartUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return cartUpdate{}
	}
	return f.updates[len(f.updates)-1]
}

type cartFixture struct {
	storage  *repository.MemoryStorageRepository
	session  *repository.MemoryStorageRepository
	remote   *fakeRemote
	identity *IdentityService
	cart     *CartService
}

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	registry, err := catalog.NewRegistry([]config.ProductConfig{
		{MovieID: 3, Slug: "dune", Title: "Дюна", OriginalTitle: "Dune", Price: 599, Image: "/img/dune.jpg"},
		{MovieID: 7, Slug: "interstellar", Title: "Интерстеллар", OriginalTitle: "Interstellar", Price: 499, Image: "/img/interstellar.jpg", Aliases: []string{"product7"}},
	}, "/img/default.jpg")
	require.NoError(t, err)
	return registry
}

func testPromos(t *testing.T) *catalog.PromoCatalog {
	t.Helper()
	promos, err := catalog.NewPromoCatalog([]config.PromoCodeConfig{
		{Code: "OSCAR2025", Discount: 0.2, Name: "Oscar"},
		{Code: "MOVIE10", Discount: 0.1, Name: "Movie"},
	})
	require.NoError(t, err)
	return promos
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	f := &cartFixture{
		storage: repository.NewMemoryStorageRepository(),
		session: repository.NewMemoryStorageRepository(),
		remote:  newFakeRemote(),
	}
	f.identity = NewIdentityService(f.storage, f.session, f.remote)
	f.cart = NewCartService(f.identity, f.storage, f.remote, testRegistry(t), testPromos(t), CartOptions{
		FallbackTitle: "Фильм %d",
		FallbackPrice: 499,
	})
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f.cart.now = func() time.Time { return fixed }
	return f
}

func (f *cartFixture) login(t *testing.T, identity *models.Identity) {
	t.Helper()
	require.NoError(t, f.identity.SetCurrent(context.Background(), identity))
}

func itemIDs(items []models.CartItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
