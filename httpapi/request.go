/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DecodeRequestJSON reads the request body and decodes it as JSON into dst.
// The Content-Type header, when present, must denote JSON.
func DecodeRequestJSON(r *http.Request, dst interface{}) error {
	reqContentType := r.Header.Get("Content-Type")
	if reqContentType != "" {
		contentType, _, err := mime.ParseMediaType(reqContentType)
		if err != nil {
			return fmt.Errorf("parse Content-Type header: %w", err)
		}
		if contentType != ContentTypeAppJSON {
			return fmt.Errorf("content type %q is not supported", contentType)
		}
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
