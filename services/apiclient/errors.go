package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

var (
	// ErrUnauthorized is returned for a 401 on an authenticated request, after the session was expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable covers timeouts and transport failures.
	ErrUnavailable = errors.New("attendance api unavailable")
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// ServerMessage is the message sent by the server, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func newAPIError(resp *rest.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err == nil {
		switch {
		case body.Error != "":
			apiErr.Message = body.Error
		case body.Message != "":
			apiErr.Message = body.Message
		case len(body.Errors) > 0:
			apiErr.Message = strings.Join(body.Errors, "; ")
		}
	}
	return apiErr
}

// StatusOf returns the HTTP status carried by err, if any.
func StatusOf(err error) (int, bool) {
	switch e := errors.Cause(err).(type) {
	case *APIError:
		return e.Status, true
	default:
		if e == ErrUnauthorized {
			return http.StatusUnauthorized, true
		}
	}
	return 0, false
}

func IsUnauthorized(err error) bool {
	status, ok := StatusOf(err)
	return ok && status == http.StatusUnauthorized
}

func IsUnavailable(err error) bool {
	return errors.Cause(err) == ErrUnavailable
}

func IsNotFound(err error) bool {
	status, ok := StatusOf(err)
	return ok && status == http.StatusNotFound
}
