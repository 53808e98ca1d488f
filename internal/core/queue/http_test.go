// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package queue_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comicrewriter/internal/core/queue"
)

func serve(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(method, target, strings.NewReader(body)))
	return recorder
}

/*
TestHandler_ProcessPage processes a page synchronously and maps the
precondition failures to HTTP statuses.
*/
func TestHandler_ProcessPage(t *testing.T) {
	ws := newWorkspace()
	handler := queue.NewHandler(newController(ws, &fakeRewriter{}, "key", queue.Config{}))
	router := handler.PageRoutes()

	recorder := serve(router, http.MethodPost, "/process", `{"chapter_id":"Chapter 1","page_id":"a"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var envelope struct {
		Data struct {
			Status string `json:"status"`
			Result string `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, "DONE", envelope.Data.Status)
	assert.Equal(t, "rewritten:a", envelope.Data.Result)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodPost, "/process", `{"chapter_id":"Chapter 1","page_id":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/process", `{"chapter_id":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPost, "/process", `not json`).Code)

	keyless := queue.NewHandler(newController(ws, &fakeRewriter{}, "", queue.Config{})).PageRoutes()
	assert.Equal(t, http.StatusUnprocessableEntity, serve(keyless, http.MethodPost, "/process", `{"chapter_id":"Chapter 1","page_id":"b"}`).Code)
}

/*
TestHandler_QueueLifecycle starts, inspects, and stops the queue over HTTP.
*/
func TestHandler_QueueLifecycle(t *testing.T) {
	ws := newWorkspace()
	release := make(chan struct{})
	rewriter := &fakeRewriter{behave: func(_ context.Context, page string) (string, error) {
		<-release
		return "ok:" + page, nil
	}}
	controller := newController(ws, rewriter, "key", queue.Config{})
	router := queue.NewHandler(controller).Routes()

	recorder := serve(router, http.MethodPost, "/start", "")
	require.Equal(t, http.StatusAccepted, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"running":true`)

	assert.Equal(t, http.StatusConflict, serve(router, http.MethodPost, "/start", "").Code)
	require.Eventually(t, func() bool { return len(rewriter.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	recorder = serve(router, http.MethodPost, "/stop", "")
	assert.Equal(t, http.StatusAccepted, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"stop_requested":true`)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, controller.Wait(ctx))

	recorder = serve(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data queue.State `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Running)
	assert.Equal(t, 1, envelope.Data.Stats.Completed)
	assert.Equal(t, 3, envelope.Data.Stats.Total)
}

/*
TestHandler_Language switches the output language.
*/
func TestHandler_Language(t *testing.T) {
	controller := newController(newWorkspace(), &fakeRewriter{}, "key", queue.Config{})
	router := queue.NewHandler(controller).LanguageRoutes()

	recorder := serve(router, http.MethodGet, "/", "")
	assert.JSONEq(t, `{"data":{"language":"vi","no_dialogue_label":"Không tìm thấy lời thoại."}}`, recorder.Body.String())

	recorder = serve(router, http.MethodPut, "/", `{"language":"en"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"language":"en","no_dialogue_label":"No dialogue detected."}}`, recorder.Body.String())

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodPut, "/", `{"language":"fr"}`).Code)
	assert.Equal(t, "en", string(controller.Language()))
}
