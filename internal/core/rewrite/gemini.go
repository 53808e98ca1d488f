// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used for dialogue rewriting.
	DefaultModel = "gemini-2.5-flash"

	// DefaultBaseURL is the Gemini REST endpoint root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	apiVersion  = "v1beta"
	temperature = float32(0.3)
)

// GeminiClient calls the Gemini generateContent endpoint through the genai SDK.
type GeminiClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGeminiClient constructs a [GeminiClient]. Empty arguments fall back to
// [DefaultBaseURL], [DefaultModel] and [http.DefaultClient].
func NewGeminiClient(baseURL, model string, httpClient *http.Client) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
	}
}

// sdkClient builds a genai client bound to one API key. The key can change
// between calls, so clients are not cached.
func (client *GeminiClient) sdkClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    client.baseURL + "/",
			APIVersion: apiVersion,
		},
	})
}

/*
Rewrite sends one page image with its system instruction.

Description: A single attempt; retrying is left to the caller. The text
parts of the first candidate are concatenated; an empty answer yields
[NoDialogue].

Returns:
  - string: Rewritten dialogue
  - error: *ServiceError classified by [Kind]
*/
func (client *GeminiClient) Rewrite(ctx context.Context, request Request) (string, error) {
	if strings.TrimSpace(request.APIKey) == "" {
		return "", &ServiceError{Kind: KindCredential, Message: "API key is missing"}
	}

	sdk, err := client.sdkClient(ctx, request.APIKey)
	if err != nil {
		return "", &ServiceError{Kind: KindCredential, Message: "Failed to configure model client", Cause: err}
	}

	mediaType := request.MediaType
	if mediaType == "" {
		mediaType = http.DetectContentType(request.Image)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(request.Image, mediaType),
			genai.NewPartFromText(UserPrompt),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(temperature)}
	if request.Instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.Instruction, genai.RoleUser)
	}

	response, err := sdk.Models.GenerateContent(ctx, client.model, contents, config)
	if err != nil {
		return "", classify(err)
	}

	var text strings.Builder
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, candidatePart := range response.Candidates[0].Content.Parts {
			if candidatePart != nil {
				text.WriteString(candidatePart.Text)
			}
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return NoDialogue, nil
	}
	return text.String(), nil
}

// # Error Classification

// classify maps SDK failures onto [Kind]. Anything that is neither an API
// error nor a transport failure is a response the SDK could not decode.
func classify(err error) *ServiceError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiError(*apiErrPtr)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return networkError(err)
	}

	return &ServiceError{Kind: KindResponse, Message: "Malformed response from model", Cause: err}
}

func networkError(err error) *ServiceError {
	message := "Network error contacting model"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		message = "Model request timed out"
	case errors.Is(err, context.Canceled):
		message = "Model request was cancelled"
	}
	return &ServiceError{Kind: KindNetwork, Message: message, Cause: err}
}

func apiError(apiErr genai.APIError) *ServiceError {
	message := strings.TrimSpace(apiErr.Message)
	if message == "" {
		message = http.StatusText(apiErr.Code)
	}

	kind := KindResponse
	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		kind = KindCredential
	case apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "api key"):
		kind = KindCredential
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		kind = KindQuota
	}

	return &ServiceError{
		Kind:       kind,
		StatusCode: apiErr.Code,
		Message:    fmt.Sprintf("Model returned %d: %s", apiErr.Code, message),
	}
}
