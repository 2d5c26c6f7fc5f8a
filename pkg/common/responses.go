package common

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// Body is the payload of a JSON response before the serving time is stamped in.
type Body map[string]interface{}

// RespondJSON sends a JSON response carrying the elapsed serving time in
// milliseconds under the "time" key.
func RespondJSON(w http.ResponseWriter, status int, body Body, start time.Time) {
	if body == nil {
		body = Body{}
	}
	body["time"] = time.Since(start).Milliseconds()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// RespondError sends the standard error body {"error": message, "time": ms}.
// The status code is derived from the error chain.
func RespondError(w http.ResponseWriter, err error, start time.Time) {
	body := Body{
		"error": apperrors.UserMessage(err),
	}
	RespondJSON(w, apperrors.HTTPStatus(err), body, start)
}

// DecodeJSONBody decodes a JSON request body into v, preserving the textual
// form of numbers. Malformed bodies are reported as bad requests.
func DecodeJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()

	if err := decoder.Decode(v); err != nil {
		return apperrors.NewBadRequestError("Invalid JSON body: " + err.Error())
	}

	return nil
}
