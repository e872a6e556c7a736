package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/apperr"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/spatial"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies. Field boundaries with a few thousand
// vertices fit comfortably.
const MaxBodyBytes = 1 << 20

// AddServerTiming appends one metric to the Server-Timing header, e.g.
// AddServerTiming(w, "db", 12*time.Millisecond) -> "db;dur=12.0".
func AddServerTiming(w http.ResponseWriter, name string, d time.Duration) {
	w.Header().Add("Server-Timing", fmt.Sprintf("%s;dur=%.1f", name, float64(d.Microseconds())/1000))
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// DecodeJSON reads a size-capped JSON body into dst. Content-Type is not
// enforced; any body that parses is accepted.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.InvalidWrap("body", "invalid JSON request body", err)
	}
	if dec.More() {
		return apperr.Invalid("body", "unexpected data after JSON object")
	}
	return nil
}

// RespondError maps err to a status code: validation problems are 400, store
// failures 500. Store details are logged, not returned.
func RespondError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		log.Info(op+" rejected", zap.Error(err))
		WriteError(w, http.StatusBadRequest, validationMessage(ve))
	case spatial.IsStoreError(err):
		log.Error(op+" failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "database error")
	default:
		log.Error(op+" failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func validationMessage(ve *apperr.ValidationError) string {
	msg := ve.Field + " " + ve.Msg
	if ve.Field == "body" {
		msg = ve.Msg
	}
	if ve.Err != nil {
		var mbe *http.MaxBytesError
		if errors.As(ve.Err, &mbe) {
			return "request body too large"
		}
		if detail := ve.Err.Error(); detail != "" {
			msg += ": " + detail
		}
	}
	return strings.TrimSpace(msg)
}
