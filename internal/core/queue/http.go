// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package queue

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/comicrewriter/internal/core/rewrite"
	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	requestutil "github.com/taibuivan/comicrewriter/internal/platform/request"
	"github.com/taibuivan/comicrewriter/internal/platform/respond"
	"github.com/taibuivan/comicrewriter/internal/platform/validate"
)

// # Handler Implementation

// Handler exposes single-page processing, the batch queue, and the output
// language over HTTP.
type Handler struct {
	controller *Controller
}

// NewHandler constructs a queue [Handler].
func NewHandler(controller *Controller) *Handler {
	return &Handler{controller: controller}
}

// Routes returns the router mounted at /api/v1/queue.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.getState)
	router.Post("/start", handler.startQueue)
	router.Post("/stop", handler.stopQueue)
	return router
}

// PageRoutes returns the router mounted at /api/v1/pages.
func (handler *Handler) PageRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/process", handler.processPage)
	return router
}

// LanguageRoutes returns the router mounted at /api/v1/language.
func (handler *Handler) LanguageRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.getLanguage)
	router.Put("/", handler.setLanguage)
	return router
}

// # Single Page

/*
POST /api/v1/pages/process.

Description: Synchronous; the response carries the page after the model call.
A dropped client connection does not abort the call.

Request:
  - body: workspace.Selection

Response:
  - 200: workspace.Page (DONE or ERROR)
  - 404: Page not in the current tree
  - 409: Page is being processed by another caller
  - 422: API key not configured
*/
func (handler *Handler) processPage(writer http.ResponseWriter, request *http.Request) {
	var input workspace.Selection
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

	page, err := handler.controller.ProcessPage(context.WithoutCancel(request.Context()), input.ChapterID, input.PageID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, page)
}

// # Batch Queue

// GET /api/v1/queue.
func (handler *Handler) getState(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.controller.State())
}

/*
POST /api/v1/queue/start.

Response:
  - 202: State (running)
  - 409: Already running
  - 422: API key not configured
*/
func (handler *Handler) startQueue(writer http.ResponseWriter, request *http.Request) {
	if err := handler.controller.Start(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: handler.controller.State()})
}

/*
POST /api/v1/queue/stop.

Description: Cooperative; the page in flight still finishes.

Response:
  - 202: State
*/
func (handler *Handler) stopQueue(writer http.ResponseWriter, request *http.Request) {
	handler.controller.Stop()
	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: handler.controller.State()})
}

// # Language

type languageResponse struct {
	Language        rewrite.Language `json:"language"`
	NoDialogueLabel string           `json:"no_dialogue_label"`
}

type languageRequest struct {
	Language string `json:"language"`
}

// GET /api/v1/language.
func (handler *Handler) getLanguage(writer http.ResponseWriter, request *http.Request) {
	language := handler.controller.Language()
	respond.OK(writer, languageResponse{Language: language, NoDialogueLabel: language.NoDialogueLabel()})
}

/*
PUT /api/v1/language.

Request:
  - body: {"language": "en" | "vi"}

Response:
  - 200: The active language
  - 400: Unsupported language
*/
func (handler *Handler) setLanguage(writer http.ResponseWriter, request *http.Request) {
	var input languageRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	language, err := rewrite.ParseLanguage(input.Language)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.controller.SetLanguage(language)
	handler.getLanguage(writer, request)
}
