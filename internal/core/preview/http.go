// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package preview

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
	requestutil "github.com/taibuivan/comicrewriter/internal/platform/request"
	"github.com/taibuivan/comicrewriter/internal/platform/respond"
)

// Handler serves preview images.
type Handler struct {
	registry *Registry
}

// NewHandler constructs a preview [Handler].
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Routes returns the router mounted at /api/v1/previews.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{previewID}", handler.servePreview)
	return router
}

/*
GET /api/v1/previews/{previewID}.

Response:
  - 200: Raw image bytes with the uploaded media type
  - 404: Preview released or never allocated
*/
func (handler *Handler) servePreview(writer http.ResponseWriter, request *http.Request) {
	source, mediaType, ok := handler.registry.Lookup(requestutil.Param(request, "previewID"))
	if !ok {
		respond.Error(writer, request, apperr.NotFound("Preview"))
		return
	}

	content, err := workspace.ReadSource(source)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	if mediaType == "" {
		mediaType = http.DetectContentType(content)
	}

	writer.Header().Set("Content-Type", mediaType)
	writer.Header().Set("Content-Length", strconv.Itoa(len(content)))
	writer.Header().Set("Cache-Control", "private, max-age=3600")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(content)
}
