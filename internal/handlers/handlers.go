package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/repository"
)

func SendJSON(w http.ResponseWriter, code int, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, log logrus.FieldLogger, code int, v any) {
	_, err := SendJSON(w, code, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.WithError(err).WithField("response", v).Error("unable to send response")
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

func sendErrorOrLog(w http.ResponseWriter, log logrus.FieldLogger, code int, err error) {
	sendJSONOrLog(w, log, code, wrapError(err))
}

// storeStatus maps a storage error to the response code.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrConstraint):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func sendStoreError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	code := storeStatus(err)
	if code == http.StatusInternalServerError {
		log.WithError(err).Error("storage failure")
		w.WriteHeader(code)
		return
	}
	sendErrorOrLog(w, log, code, err)
}
