package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// fallbackMessage is shown when the error body carries nothing usable.
const fallbackMessage = "request failed"

// APIError is an application-level failure: the server responded with a
// non-2xx status and (usually) a structured JSON body.
type APIError struct {
	StatusCode int
	Body       []byte

	fields errorBody
}

type errorBody struct {
	Details    []string `json:"details"`
	Violations []struct {
		Message string `json:"message"`
	} `json:"violations"`
	Message string `json:"message"`
	Title   string `json:"title"`
}

func newAPIError(res *http.Response) *APIError {
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))

	e := &APIError{StatusCode: res.StatusCode, Body: body}
	// Best effort: a non-JSON body still yields a usable error.
	_ = json.Unmarshal(body, &e.fields)
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message())
}

// Message extracts a human-readable message from the error body,
// preferring details, then violations, then message, then title.
func (e *APIError) Message() string {
	if len(e.fields.Details) > 0 {
		return strings.Join(e.fields.Details, ", ")
	}
	if len(e.fields.Violations) > 0 {
		msgs := make([]string, 0, len(e.fields.Violations))
		for _, v := range e.fields.Violations {
			msgs = append(msgs, v.Message)
		}
		return strings.Join(msgs, ", ")
	}
	if e.fields.Message != "" {
		return e.fields.Message
	}
	if e.fields.Title != "" {
		return e.fields.Title
	}
	return fallbackMessage
}

// ErrorMessage returns a human-readable message for any error coming
// out of the client: the extracted body message for application
// failures, the error text otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return err.Error()
}
