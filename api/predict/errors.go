package predict

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/queuecast/core/forecast"
	"github.com/kilianp07/queuecast/core/prediction"
	"github.com/kilianp07/queuecast/core/queueing"
)

var errBadRequest = errors.New("bad request")

// StatusFor maps an engine error to the HTTP status returned to callers.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, queueing.ErrUnstableSystem):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, prediction.ErrInvalidInput),
		errors.Is(err, prediction.ErrInsufficientData),
		errors.Is(err, queueing.ErrInvalidParameters),
		errors.Is(err, queueing.ErrInvalidPosition),
		errors.Is(err, queueing.ErrInsufficientData),
		errors.Is(err, forecast.ErrInsufficientData),
		errors.Is(err, forecast.ErrInvalidSteps),
		errors.Is(err, forecast.ErrInvalidOrder),
		errors.Is(err, forecast.ErrInvalidParameters),
		errors.Is(err, forecast.ErrLengthMismatch),
		errors.Is(err, forecast.ErrEmptyInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorBody{Error: err.Error()})
}

// writeJSON encodes v before touching the response so an unencodable value
// yields a 500 instead of a success status with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
