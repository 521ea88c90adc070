package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dulcemimos/go-store-api/internal/errs"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// writeError maps the domain error taxonomy onto HTTP. Unknown errors become
// an opaque 500; the message field never carries internals.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errs.IsValidation(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errs.IsInsufficientStock(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
