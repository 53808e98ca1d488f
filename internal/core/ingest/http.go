// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
	"github.com/taibuivan/comicrewriter/internal/platform/events"
	"github.com/taibuivan/comicrewriter/internal/platform/respond"
)

// Handler accepts folder uploads and installs the resulting tree.
type Handler struct {
	ingestor  *Ingestor
	workspace *workspace.Workspace
	publisher events.Publisher
	maxBytes  int64
	logger    *slog.Logger
}

// NewHandler constructs an upload [Handler]. maxBytes caps the whole request body.
func NewHandler(ingestor *Ingestor, ws *workspace.Workspace, publisher events.Publisher, maxBytes int64, logger *slog.Logger) *Handler {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Handler{
		ingestor:  ingestor,
		workspace: ws,
		publisher: publisher,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Routes returns the router mounted at /api/v1/uploads.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", handler.upload)
	return router
}

/*
POST /api/v1/uploads.

Description: Multipart form; every file part's filename carries the path
relative to the selected folder ("Comic/Chapter 1/001.jpg") and its
Content-Type the media type. The parsed tree replaces the current one.

Response:
  - 201: workspace.Snapshot
  - 400: Not a multipart body
  - 413: Body exceeds the configured limit
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	if handler.maxBytes > 0 {
		if request.ContentLength > handler.maxBytes {
			respond.Error(writer, request, apperr.TooLarge(fmt.Sprintf("Upload exceeds %d bytes", handler.maxBytes)))
			return
		}
		request.Body = http.MaxBytesReader(writer, request.Body, handler.maxBytes)
	}

	files, err := ReadMultipart(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapters := handler.ingestor.Parse(files)
	batchID := handler.workspace.Replace(chapters)

	pages := 0
	for _, chapter := range chapters {
		pages += len(chapter.Pages)
	}

	handler.logger.InfoContext(request.Context(), "folder_ingested",
		slog.String("batch_id", batchID),
		slog.Int("files", len(files)),
		slog.Int("chapters", len(chapters)),
		slog.Int("pages", pages),
	)

	handler.publisher.Publish(events.Event{Type: events.TypeWorkspaceReplace, BatchID: batchID})

	respond.Created(writer, handler.workspace.TakeSnapshot())
}

/*
ReadMultipart reads every image part of a multipart upload into memory.

Description: The raw filename parameter is used instead of
[multipart.Part.FileName], which strips directories and would lose the
chapter folder. Non-image parts are skipped without buffering.

Returns:
  - []File: Image parts in request order
  - error: apperr.ValidationError or a 413 AppError
*/
func ReadMultipart(request *http.Request) ([]File, error) {
	reader, err := request.MultipartReader()
	if err != nil {
		return nil, apperr.ValidationError("Expected a multipart/form-data upload")
	}

	var files []File
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, uploadError(err)
		}

		relativePath := rawFilename(part.Header.Get("Content-Disposition"))
		if relativePath == "" {
			_ = part.Close()
			continue
		}

		name := path.Base(relativePath)
		mediaType := part.Header.Get("Content-Type")
		if !IsImage(name, mediaType) {
			_ = part.Close()
			continue
		}

		content, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, uploadError(err)
		}

		files = append(files, File{
			Name:         name,
			RelativePath: relativePath,
			MediaType:    mediaType,
			Source:       workspace.BytesSource(content),
		})
	}

	return files, nil
}

// rawFilename returns the unmodified filename parameter of a
// Content-Disposition header, normalised to forward slashes.
func rawFilename(disposition string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}

	filename := strings.ReplaceAll(params["filename"], "\\", "/")
	return strings.TrimPrefix(filename, "/")
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.TooLarge(fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))
	}
	return apperr.ValidationError("Malformed multipart upload")
}
