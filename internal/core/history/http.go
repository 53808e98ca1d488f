// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package history

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
	requestutil "github.com/taibuivan/comicrewriter/internal/platform/request"
	"github.com/taibuivan/comicrewriter/internal/platform/respond"
	"github.com/taibuivan/comicrewriter/internal/platform/validate"
	"github.com/taibuivan/comicrewriter/pkg/pagination"
)

// Handler serves archived page results.
type Handler struct {
	service *Service
}

// NewHandler constructs a history [Handler]. A nil service answers 503.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /api/v1/history.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listEntries)
	return router
}

/*
GET /api/v1/history.

Request:
  - query: batch_id, page_id, status (DONE|ERROR), page, limit

Response:
  - 200: []Entry with pagination meta
  - 503: History storage is not configured
*/
func (handler *Handler) listEntries(writer http.ResponseWriter, request *http.Request) {
	if handler.service == nil {
		respond.Error(writer, request, apperr.ServiceUnavailable("History storage is not configured"))
		return
	}

	filter := Filter{
		BatchID: requestutil.Query(request, "batch_id"),
		PageID:  requestutil.Query(request, "page_id"),
		Status:  strings.ToUpper(requestutil.Query(request, "status")),
	}

	validator := &validate.Validator{}
	if filter.BatchID != "" {
		validator.UUID("batch_id", filter.BatchID)
	}
	if filter.Status != "" {
		validator.OneOf("status", filter.Status, "DONE", "ERROR")
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	entries, total, err := handler.service.List(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(params.Page, params.Limit, total))
}
