package serverutil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flockerrs "github.com/jdholdren/flock/internal/errors"
	"github.com/jdholdren/flock/internal/flock"
)

type nameReq struct {
	Name string `json:"name"`
}

func (n nameReq) Validate() error {
	if n.Name == "" {
		return flockerrs.E("invalid request", http.StatusBadRequest, flockerrs.Detail{Field: "name", Error: "is required"})
	}
	return nil
}

func TestDecodeValid(t *testing.T) {
	got, err := DecodeValid[nameReq](strings.NewReader(`{"name":"flock"}`))
	require.NoError(t, err)
	assert.Equal(t, "flock", got.Name)

	_, err = DecodeValid[nameReq](strings.NewReader(`{`))
	var sErr *flockerrs.Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, http.StatusBadRequest, sErr.Status)

	_, err = DecodeValid[nameReq](strings.NewReader(`{}`))
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, []flockerrs.Detail{{Field: "name", Error: "is required"}}, sErr.Details)
}

func TestHandlerFuncE_MapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("user: %w", flock.ErrNotFound), http.StatusNotFound},
		{"structured", flockerrs.E("slow down", http.StatusTooManyRequests), http.StatusTooManyRequests},
		{"opaque", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandlerFuncE(func(w http.ResponseWriter, r *http.Request) error {
				return tt.err
			}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "given", rec.Header().Get(RequestIDHeader))
}
