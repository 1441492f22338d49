// Package translate provides a client for the Gemini generateContent API used to
// translate text before it is spoken.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/book-expert/speech-translator/internal/core"
)

// API paths and query parameters.
const (
	apiGenerateContentFmt = "%s/models/%s:generateContent"
	queryKey              = "key"
	roleUser              = "user"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// Prompt and error messages.
const (
	promptFmt                = `Translate the following text to %s: "%s"`
	errFmtNoCandidates       = "%w: no candidates"
	errFmtNoParts            = "%w: first candidate has no content parts"
	errFmtEmptyText          = "%w: first candidate text is empty"
	errFmtDecodeResponse     = "%w: %v"
	errFmtServiceError       = "%w: translation API error (%s): %s"
	errFmtServiceNonOKStatus = "%w: translation API returned non-OK status: %s, body: %s"
)

// Client calls the Gemini generateContent endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// Request is the generateContent payload.
type Request struct {
	Contents []Content `json:"contents"`
}

// Content is a single conversational turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a text fragment of a turn.
type Part struct {
	Text string `json:"text"`
}

// Response is the subset of the generateContent response the client reads.
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated completion.
type Candidate struct {
	Content *Content `json:"content"`
}

// ErrorResponse is the structured error body returned by the API.
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient creates a translation client. A zero timeout means requests are only
// bounded by their context.
func NewClient(baseURL, model, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
	}
}

// NewRequest builds the single-turn translation payload.
func NewRequest(text, targetLanguageName string) Request {
	return Request{
		Contents: []Content{{
			Role:  roleUser,
			Parts: []Part{{Text: fmt.Sprintf(promptFmt, targetLanguageName, text)}},
		}},
	}
}

// Translate asks the model to translate text into targetLanguageName and returns
// the first candidate's text verbatim.
//
// A request that cannot complete yields a *core.TransportError. An answer without
// usable candidate text yields an error wrapping core.ErrMalformedResponse.
func (c *Client) Translate(ctx context.Context, text, targetLanguageName string) (string, error) {
	if text == "" {
		return "", core.ErrNoInputText
	}

	requestBody, err := json.Marshal(NewRequest(text, targetLanguageName))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint(),
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &core.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &core.TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", parseErrorResponse(resp.Status, body)
	}

	return ExtractText(body)
}

// ExtractText returns the first candidate's first part text from a response body.
func ExtractText(body []byte) (string, error) {
	var response Response

	err := json.Unmarshal(body, &response)
	if err != nil {
		return "", fmt.Errorf(errFmtDecodeResponse, core.ErrMalformedResponse, err)
	}

	if len(response.Candidates) == 0 {
		return "", fmt.Errorf(errFmtNoCandidates, core.ErrMalformedResponse)
	}

	content := response.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf(errFmtNoParts, core.ErrMalformedResponse)
	}

	if content.Parts[0].Text == "" {
		return "", fmt.Errorf(errFmtEmptyText, core.ErrMalformedResponse)
	}

	return content.Parts[0].Text, nil
}

func (c *Client) endpoint() string {
	query := url.Values{}
	query.Set(queryKey, c.apiKey)

	return fmt.Sprintf(apiGenerateContentFmt, c.baseURL, url.PathEscape(c.model)) + "?" + query.Encode()
}

// parseErrorResponse reports a non-OK answer as a malformed response, keeping the
// structured API message when there is one.
func parseErrorResponse(status string, body []byte) error {
	var errorResp ErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Error.Message != "" {
		return fmt.Errorf(errFmtServiceError, core.ErrMalformedResponse, status, errorResp.Error.Message)
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, core.ErrMalformedResponse, status, string(body))
}
