package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

var ErrAPI = errors.New("d2 api")

// ResponseError describes the web message the server responds with when a call
// fails.
type ResponseError struct {
	HTTPStatusCode int    `json:"httpStatusCode"`
	HTTPStatus     string `json:"httpStatus"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	DevMessage     string `json:"devMessage,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("(HTTP Status: %d) %s", e.HTTPStatusCode, e.Message)
}

func (e *ResponseError) Unwrap() error {
	return ErrAPI
}

// ToErrorFromResponse turns a failed response into a *ResponseError. Bodies that are
// not a web message still produce an error; the raw body (or the status text when
// the body is empty) becomes the message.
func ToErrorFromResponse(resp *resty.Response) *ResponseError {
	statusCode := resp.StatusCode()

	var errorResponse ResponseError
	if err := json.Unmarshal(resp.Body(), &errorResponse); err != nil || errorResponse.Message == "" {
		errorResponse.Message = strings.TrimSpace(string(resp.Body()))
	}

	if errorResponse.Message == "" {
		errorResponse.Message = http.StatusText(statusCode)
	}

	if errorResponse.HTTPStatusCode == 0 {
		errorResponse.HTTPStatusCode = statusCode
	}

	if errorResponse.HTTPStatus == "" {
		errorResponse.HTTPStatus = http.StatusText(statusCode)
	}

	return &errorResponse
}
