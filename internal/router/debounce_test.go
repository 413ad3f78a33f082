package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestDebouncerAllowsOncePerInterval(t *testing.T) {
	d := NewDebouncer(500 * time.Millisecond)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	if !d.Allow("dune|inc") {
		t.Fatalf("first click should pass")
	}
	if d.Allow("dune|inc") {
		t.Fatalf("second click within interval should be debounced")
	}
	if !d.Allow("dune|dec") {
		t.Fatalf("other direction should pass")
	}

	now = now.Add(200 * time.Millisecond)
	if d.Allow("dune|inc") {
		t.Fatalf("click after 200ms should be debounced")
	}
	now = now.Add(400 * time.Millisecond)
	if !d.Allow("dune|inc") {
		t.Fatalf("click after interval should pass")
	}
}

func TestDebouncerSweepsStaleKeys(t *testing.T) {
	d := NewDebouncer(time.Millisecond)
	now := time.Now()
	d.now = func() time.Time { return now }
	d.Allow("stale")
	now = now.Add(time.Second)
	for i := 0; i < debounceSweepEvery; i++ {
		d.Allow("fresh")
	}
	if _, ok := d.entries["stale"]; ok {
		t.Fatalf("stale key should be swept")
	}
}

func TestDebounceMiddlewareByItemAndDirection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	d := NewDebouncer(time.Hour)
	r := gin.New()
	r.PATCH("/cart/items/:id", DebounceMiddleware(d, KeyByCartItemDirection), func(c *gin.Context) {
		var req struct {
			Delta int `json:"delta"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			t.Errorf("body should be restored for binding: %v", err)
		}
		c.JSON(http.StatusOK, gin.H{"delta": req.Delta})
	})

	send := func(id, body string) string {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/cart/items/"+id, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w.Body.String()
	}

	if body := send("dune", `{"delta":1}`); !strings.Contains(body, `"delta":1`) {
		t.Fatalf("first increment should pass, got %s", body)
	}
	if body := send("dune", `{"delta":1}`); !strings.Contains(body, `"status_code":429`) {
		t.Fatalf("repeat increment should be debounced, got %s", body)
	}
	if body := send("dune", `{"delta":-1}`); !strings.Contains(body, `"delta":-1`) {
		t.Fatalf("decrement should pass, got %s", body)
	}
	if body := send("interstellar", `{"delta":1}`); !strings.Contains(body, `"delta":1`) {
		t.Fatalf("other item should pass, got %s", body)
	}
}
