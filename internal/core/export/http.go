// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package export

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/comicrewriter/internal/core/workspace"
)

// Handler serves the export download.
type Handler struct {
	workspace *workspace.Workspace
}

// NewHandler constructs an export [Handler].
func NewHandler(ws *workspace.Workspace) *Handler {
	return &Handler{workspace: ws}
}

// Routes returns the router mounted at /api/v1/export.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.download)
	return router
}

/*
GET /api/v1/export.

Response:
  - 200: text/plain attachment named comic_rewrite_output.txt
*/
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	body := Render(handler.workspace.Chapters())

	writer.Header().Set("Content-Type", MediaType+"; charset=utf-8")
	writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", Filename))
	writer.Header().Set("Content-Length", strconv.Itoa(len(body)))
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write([]byte(body))
}
