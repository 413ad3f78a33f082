package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kinoshop-next/internal/catalog"
	"github.com/kinoshop-next/internal/remote"
	"github.com/kinoshop-next/internal/service"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

func runMapped(t *testing.T, respond func(*gin.Context, error), err error) envelope {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Accept-Language", "en")
	respond(c, err)

	if w.Code != http.StatusOK {
		t.Fatalf("http status should always be 200, got %d", w.Code)
	}
	var env envelope
	if decodeErr := json.Unmarshal(w.Body.Bytes(), &env); decodeErr != nil {
		t.Fatalf("decode response failed: %v", decodeErr)
	}
	return env
}

func TestRespondCartUpdateErrorMapsRemoteFailures(t *testing.T) {
	env := runMapped(t, respondCartUpdateError, fmt.Errorf("push: %w", remote.ErrNetwork))
	if env.StatusCode != 502 {
		t.Fatalf("network error want 502 got %d", env.StatusCode)
	}
	env = runMapped(t, respondCartUpdateError, service.ErrPromoCodeInvalid)
	if env.StatusCode != 400 {
		t.Fatalf("invalid promo want 400 got %d", env.StatusCode)
	}
	env = runMapped(t, respondCartUpdateError, fmt.Errorf("boom"))
	if env.StatusCode != 500 {
		t.Fatalf("unknown error want 500 got %d", env.StatusCode)
	}
}

func TestRespondMetadataError(t *testing.T) {
	cases := map[error]int{
		catalog.ErrProductNotFound:     404,
		service.ErrMetadataNotFound:    404,
		service.ErrMetadataUnavailable: 502,
	}
	for err, want := range cases {
		if got := runMapped(t, respondMetadataError, err).StatusCode; got != want {
			t.Fatalf("%v want %d got %d", err, want, got)
		}
	}
}

func TestRespondValidationErrorPrefersServerMessage(t *testing.T) {
	vErr := &service.ValidationError{Fields: map[string]service.FieldError{
		"username": {Message: "Пользователь уже существует"},
		"terms":    {Key: "error.terms_required"},
	}}
	env := runMapped(t, respondRegisterError, vErr)
	if env.StatusCode != 400 {
		t.Fatalf("validation error want 400 got %d", env.StatusCode)
	}
	fields, ok := env.Data["fields"].(map[string]interface{})
	if !ok {
		t.Fatalf("fields missing: %v", env.Data)
	}
	if fields["username"] != "Пользователь уже существует" {
		t.Fatalf("server message should win, got %v", fields["username"])
	}
	if fields["terms"] == "" || fields["terms"] == "error.terms_required" {
		t.Fatalf("terms should be translated, got %v", fields["terms"])
	}
}
