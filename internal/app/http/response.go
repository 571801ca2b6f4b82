package http

import (
	"encoding/json"
	"github.com/beldeveloper/go-errors-context"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"log"
	"net/http"
)

// SetDefaultHeaders sets the basic set of headers to the response.
func SetDefaultHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}

type errorBody struct {
	Error string `json:"error"`
}

func apiError(w http.ResponseWriter, err error) {
	SetDefaultHeaders(w)
	code := http.StatusInternalServerError
	switch true {
	case errors.Is(err, errtype.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errtype.ErrBadInput):
		code = http.StatusBadRequest
	case errors.Is(err, errtype.ErrUnauthorized):
		code = http.StatusUnauthorized
	default:
		log.Println(err)
	}
	w.WriteHeader(code)
	msg := http.StatusText(code)
	if code != http.StatusInternalServerError {
		msg = err.Error()
	}
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg}); err != nil {
		log.Println(err)
	}
}

func apiSuccess(w http.ResponseWriter, data interface{}) {
	SetDefaultHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Println(err)
	}
}
