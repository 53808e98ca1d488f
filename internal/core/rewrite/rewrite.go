// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rewrite is the contract with the external multimodal model that reads
a comic page and rewrites its dialogue.

# Error Taxonomy

Every failure of a call is a [*ServiceError] with a [Kind]. An empty model
answer is not a failure: it yields [NoDialogue].
*/
package rewrite

import (
	"context"
	"errors"
)

// NoDialogue is the result recorded when the model returns no text.
const NoDialogue = "No dialogue detected."

// Request is one page submitted for rewriting.
type Request struct {
	APIKey      string
	Image       []byte
	MediaType   string
	Instruction string
}

// Rewriter extracts and rewrites the dialogue of one page image.
type Rewriter interface {
	Rewrite(ctx context.Context, request Request) (string, error)
}

// Kind classifies a [ServiceError].
type Kind string

const (
	KindNetwork    Kind = "network"
	KindCredential Kind = "credential"
	KindQuota      Kind = "quota"
	KindResponse   Kind = "response"
)

// ServiceError is a failed call to the external model.
type ServiceError struct {
	Kind       Kind
	StatusCode int    // 0 when no response was received
	Message    string // human readable, stored as the page error
	Cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Message }

// Unwrap exposes the underlying transport or decoding error.
func (e *ServiceError) Unwrap() error { return e.Cause }

// IsKind reports whether err is a [*ServiceError] of the given kind.
func IsKind(err error, kind Kind) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) && serviceErr.Kind == kind
}
