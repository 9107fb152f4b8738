/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chorushub/go-clipkit/log"
)

// ContentTypeAppJSON represents MIME media type for JSON.
const ContentTypeAppJSON = "application/json"

// Error codes that may be returned in error responses.
const (
	ErrCodeInternal         = "internalError"
	ErrCodeNotFound         = "notFound"
	ErrCodeMethodNotAllowed = "methodNotAllowed"
	ErrCodeMalformedRequest = "malformedRequest"
	ErrCodeUnauthenticated  = "unauthenticated"
	ErrCodeTooManyRequests  = "tooManyRequests"
)

// Error represents an error that is sent in response bodies.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError creates a new Error with the passed code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorResponseData is used for answering requests with an error.
type ErrorResponseData struct {
	Err *Error `json:"error"`
}

// Does JSON marshaling with disabled HTML escaping.
func jsonMarshal(v interface{}) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return buffer.Bytes()[:buffer.Len()-1], nil
}

// RespondJSON sends a response with the passed status code and sets the "Content-Type"
// to "application/json" if it's not already set. It performs JSON marshaling of the data
// and writes the result to the response's body.
func RespondJSON(rw http.ResponseWriter, statusCode int, respData interface{}, logger log.FieldLogger) {
	if respData == nil {
		rw.WriteHeader(statusCode)
		return
	}

	if rw.Header().Get("Content-Type") == "" {
		rw.Header().Set("Content-Type", ContentTypeAppJSON)
	}

	respJSON, err := jsonMarshal(respData)
	if err != nil {
		if logger != nil {
			logger.Error("error while marshaling json for response body", log.Error(err))
		}
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	rw.WriteHeader(statusCode)
	if _, err = rw.Write(respJSON); err != nil {
		if logger != nil {
			logger.Error("error while writing response body", log.Error(err))
		}
	}
}

// RespondError sets HTTP status code in response and writes the error in body in JSON format.
// Also, it logs info (code and message) about the error.
func RespondError(rw http.ResponseWriter, httpStatusCode int, err *Error, logger log.FieldLogger) {
	if logger != nil {
		logger.Error("error in response",
			log.Int("http_status_code", httpStatusCode),
			log.String("error_code", err.Code),
			log.String("error_message", err.Message),
		)
	}
	RespondJSON(rw, httpStatusCode, ErrorResponseData{err}, logger)
}

// RespondInternalError sends a response with 500 HTTP status code and internal error in body in JSON format.
func RespondInternalError(rw http.ResponseWriter, logger log.FieldLogger) {
	RespondError(rw, http.StatusInternalServerError, NewError(ErrCodeInternal, "Internal error."), logger)
}
