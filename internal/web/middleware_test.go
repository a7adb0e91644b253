package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	goahttp "goa.design/goa/v3/http"
	goamiddleware "goa.design/goa/v3/middleware"

	"chengdumed/internal/config"
	"chengdumed/internal/logging"
)

func TestHandlerPropagatesRequestID(t *testing.T) {
	mux := goahttp.NewMuxer()
	mux.Handle(http.MethodGet, "/echo-id", func(w http.ResponseWriter, r *http.Request) {
		id, _ := r.Context().Value(goamiddleware.RequestIDKey).(string)
		_, _ = w.Write([]byte(id))
	})
	handler := Handler(mux, &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"*"}}}, logging.Nop())

	req := httptest.NewRequest(http.MethodGet, "/echo-id", nil)
	req.Header.Set("X-Request-Id", "lead-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "lead-42", rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/echo-id", nil))
	assert.NotEmpty(t, rec.Body.String())
}
