// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/comicrewriter/internal/platform/ctxutil"
	"github.com/taibuivan/comicrewriter/internal/platform/middleware"
	"github.com/taibuivan/comicrewriter/pkg/uuid"
)

type corsConfig struct {
	development bool
	origins     []string
}

func (c corsConfig) IsDevelopment() bool { return c.development }
func (c corsConfig) Origins() []string   { return c.origins }

/*
TestRequestID keeps a client supplied id and generates one otherwise.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, uuid.Valid(seen))
	assert.Equal(t, seen, recorder.Header().Get("X-Request-ID"))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-ID", "client-id")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "client-id", seen)
}

/*
TestCORS allows any origin in development and only listed origins otherwise.
*/
func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		cfg     corsConfig
		origin  string
		allowed bool
	}{
		{"development", corsConfig{development: true}, "http://localhost:5173", true},
		{"listed", corsConfig{origins: []string{"https://rewrite.example"}}, "https://rewrite.example", true},
		{"unlisted", corsConfig{origins: []string{"https://rewrite.example"}}, "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.CORS(tt.cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

			request := httptest.NewRequest(http.MethodOptions, "/api/v1/queue/start", nil)
			request.Header.Set("Origin", tt.origin)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusNoContent, recorder.Code)
			if tt.allowed {
				assert.Equal(t, tt.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

/*
TestPanicRecovery turns a panic into a 500 JSON error.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"code":"INTERNAL_SERVER_ERROR","error":"An unexpected error occurred"}`, recorder.Body.String())
}

func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, "10.0.0.1", middleware.RealIP(request))

	request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", middleware.RealIP(request))
}
