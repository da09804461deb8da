package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cdr.dev/slog/sloggers/slogtest"
	"github.com/stretchr/testify/assert"
)

func TestStatsValidation(t *testing.T) {
	t.Parallel()

	h := NewStatsHandler(slogtest.Make(t, nil), testConfig(), nil)

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{"missing site", "", http.StatusBadRequest},
		{"unknown period", "site=example.com&period=1y", http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/stats?"+tt.query, nil)
			h.Stats().ServeHTTP(w, r)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
