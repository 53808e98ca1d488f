// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package workspace

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/comicrewriter/internal/platform/request"
	"github.com/taibuivan/comicrewriter/internal/platform/respond"
	"github.com/taibuivan/comicrewriter/internal/platform/validate"
)

// Snapshot is the read model returned to clients.
type Snapshot struct {
	BatchID   string    `json:"batch_id"`
	Chapters  []Chapter `json:"chapters"`
	Stats     Stats     `json:"stats"`
	Selection Selection `json:"selection"`
}

// TakeSnapshot assembles a [Snapshot] of the current tree.
func (workspace *Workspace) TakeSnapshot() Snapshot {
	return Snapshot{
		BatchID:   workspace.BatchID(),
		Chapters:  workspace.Chapters(),
		Stats:     workspace.Stats(),
		Selection: workspace.Selection(),
	}
}

// # Handler Implementation

// Handler exposes the tree and the selection pointer over HTTP.
type Handler struct {
	workspace *Workspace
}

// NewHandler constructs a workspace [Handler].
func NewHandler(workspace *Workspace) *Handler {
	return &Handler{workspace: workspace}
}

// Routes returns the router mounted at /api/v1/workspace.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.getWorkspace)
	router.Put("/selection", handler.selectPage)
	return router
}

/*
GET /api/v1/workspace.

Response:
  - 200: Snapshot: Chapters in reading order, progress and selection
*/
func (handler *Handler) getWorkspace(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.workspace.TakeSnapshot())
}

/*
PUT /api/v1/workspace/selection.

Request:
  - body: Selection

Response:
  - 200: Selection: The new selection
  - 400: Validation: Missing identifiers
  - 404: ErrPageNotFound
*/
func (handler *Handler) selectPage(writer http.ResponseWriter, request *http.Request) {
	var input Selection
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("chapter_id", input.ChapterID)
	validator.Required("page_id", input.PageID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.workspace.Select(input.ChapterID, input.PageID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, input)
}
