// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package credential manages the API key used for the external rewrite model.

# Resolution Order

 1. A key preloaded from the process environment.
 2. A key saved through the API into the configured [Store].

The key only ever leaves the process in calls to the model; it is never
returned by the HTTP API.
*/
package credential

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
)

// Key sources reported by [Service.Status].
const (
	SourceNone        = "none"
	SourceEnvironment = "environment"
	SourceStore       = "store"
)

// ErrBlankKey is returned when saving an empty or whitespace key.
var ErrBlankKey = apperr.ValidationError("API key is required", apperr.FieldError{
	Field:   "api_key",
	Message: "must not be blank",
})

// Status describes whether a key is available without revealing it.
type Status struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source"`
}

// Service resolves and persists the API key.
type Service struct {
	store  Store
	preset string
	logger *slog.Logger
}

// NewService constructs a credential [Service]. preset is the key from the
// environment and may be empty.
func NewService(store Store, preset string, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		preset: strings.TrimSpace(preset),
		logger: logger,
	}
}

/*
APIKey returns the active key.

Returns:
  - string: The key, or "" when none is configured
  - error: Storage failures only; a missing key is not an error
*/
func (service *Service) APIKey(ctx context.Context) (string, error) {
	if service.preset != "" {
		return service.preset, nil
	}

	key, err := service.store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotStored) {
			return "", nil
		}
		return "", err
	}
	return key, nil
}

// Status reports whether a key is configured and where it comes from.
func (service *Service) Status(ctx context.Context) (Status, error) {
	if service.preset != "" {
		return Status{Configured: true, Source: SourceEnvironment}, nil
	}

	key, err := service.APIKey(ctx)
	if err != nil {
		return Status{}, err
	}
	if key == "" {
		return Status{Source: SourceNone}, nil
	}
	return Status{Configured: true, Source: SourceStore}, nil
}

/*
Save trims and stores a key.

Description: An environment preload still takes precedence afterwards.

Returns:
  - error: ErrBlankKey or storage failures
*/
func (service *Service) Save(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrBlankKey
	}

	if err := service.store.Set(ctx, key); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "credential_saved", slog.Bool("overridden_by_env", service.preset != ""))
	return nil
}

// Clear removes the stored key. The environment preload is unaffected.
func (service *Service) Clear(ctx context.Context) error {
	if err := service.store.Delete(ctx); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "credential_cleared")
	return nil
}
