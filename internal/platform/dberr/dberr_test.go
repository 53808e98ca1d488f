// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comicrewriter/internal/platform/apperr"
	"github.com/taibuivan/comicrewriter/internal/platform/dberr"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, dberr.Wrap(nil, "insert page result"))
	assert.Same(t, dberr.ErrNotFound, dberr.Wrap(pgx.ErrNoRows, "get page result"))

	duplicate := dberr.Wrap(&pgconn.PgError{Code: "23505"}, "insert page result")
	require.NotNil(t, apperr.As(duplicate))
	assert.Equal(t, http.StatusConflict, apperr.As(duplicate).HTTPStatus)

	cause := errors.New("connection reset")
	internal := dberr.Wrap(cause, "list page results")
	require.NotNil(t, apperr.As(internal))
	assert.Equal(t, http.StatusInternalServerError, apperr.As(internal).HTTPStatus)
	assert.ErrorIs(t, internal, cause)
}
