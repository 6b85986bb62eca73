// Package runtime serves an invocation handler over HTTP using the
// {statusCode, headers, body} response envelope, where body is a JSON string.
package runtime

import (
	"errors"
	"fmt"
	"net/http"

	"smartgoal/internal/util/jsonutil"
)

// Response is the envelope returned for every invocation.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

// StatusError carries a non-500 status out of an invoker.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string { return e.Msg }

// BadRequest reports a client error.
func BadRequest(msg string) error {
	return &StatusError{Code: http.StatusBadRequest, Msg: msg}
}

// OK wraps v as a 200 envelope.
func OK(v any) (Response, error) {
	body, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		return Response{}, fmt.Errorf("encode response body: %w", err)
	}
	return Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

// Failure converts err into an error envelope. StatusError keeps its code;
// everything else is a 500 carrying err's message.
func Failure(err error) Response {
	code := http.StatusInternalServerError
	var se *StatusError
	if errors.As(err, &se) {
		code = se.Code
	}
	body, mErr := jsonutil.MarshalNoEscape(map[string]string{"error": err.Error()})
	if mErr != nil {
		body = []byte(`{"error":"internal error"}`)
	}
	return Response{StatusCode: code, Body: string(body)}
}
