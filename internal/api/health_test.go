// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/comicrewriter/internal/api"
)

/*
TestReadiness reports only the configured backends and degrades on failure.
*/
func TestReadiness(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		deps   api.HealthDependencies
		status int
		body   string
	}{
		{
			name:   "no_backends",
			deps:   api.HealthDependencies{},
			status: http.StatusOK,
			body:   `{"data":{"status":"ready","checks":[]}}`,
		},
		{
			name:   "database_only",
			deps:   api.HealthDependencies{CheckDatabase: healthy},
			status: http.StatusOK,
			body:   `{"data":{"status":"ready","checks":[{"name":"postgres","ok":true}]}}`,
		},
		{
			name:   "redis_down",
			deps:   api.HealthDependencies{CheckDatabase: healthy, CheckCache: broken},
			status: http.StatusServiceUnavailable,
			body:   `{"data":{"status":"degraded","checks":[{"name":"postgres","ok":true},{"name":"redis","ok":false,"error":"connection refused"}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, readiness := api.NewHealthHandlers(tt.deps, slog.Default())

			recorder := httptest.NewRecorder()
			readiness(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.status, recorder.Code)
			assert.JSONEq(t, tt.body, recorder.Body.String())
		})
	}
}

func TestLiveness(t *testing.T) {
	liveness, _ := api.NewHealthHandlers(api.HealthDependencies{}, slog.Default())

	recorder := httptest.NewRecorder()
	liveness(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"status":"ok","app":"comicrewriter","version":"0.1.0-dev"}}`, recorder.Body.String())
}
