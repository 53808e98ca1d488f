// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package credential

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
	requestutil "github.com/taibuivan/comicrewriter/internal/platform/request"
	"github.com/taibuivan/comicrewriter/internal/platform/respond"
	"github.com/taibuivan/comicrewriter/internal/platform/validate"
)

// maxKeyLength bounds what is written to the store.
const maxKeyLength = 512

// Handler exposes the key status and save/clear actions.
type Handler struct {
	service *Service
}

// NewHandler constructs a credential [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /api/v1/credential.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.getStatus)
	router.Put("/", handler.saveKey)
	router.Delete("/", handler.clearKey)
	return router
}

type saveKeyRequest struct {
	APIKey string `json:"api_key"`
}

// GET /api/v1/credential.
func (handler *Handler) getStatus(writer http.ResponseWriter, request *http.Request) {
	status, err := handler.service.Status(request.Context())
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}
	respond.OK(writer, status)
}

/*
PUT /api/v1/credential.

Request:
  - body: {"api_key": "..."}

Response:
  - 200: Status (the key itself is never returned)
  - 400: ErrBlankKey, or a key longer than 512 characters
*/
func (handler *Handler) saveKey(writer http.ResponseWriter, request *http.Request) {
	var input saveKeyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.MaxLen("api_key", input.APIKey, maxKeyLength).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Save(request.Context(), input.APIKey); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.getStatus(writer, request)
}

// DELETE /api/v1/credential.
func (handler *Handler) clearKey(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Clear(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
