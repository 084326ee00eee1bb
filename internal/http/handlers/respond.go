package handlers

import (
	"errors"
	"net/http"

	listsvc "listkeeper/internal/services/listparams"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigStd.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// writeError maps service errors onto HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listsvc.ErrUnknownResource):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, listsvc.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("list params request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
