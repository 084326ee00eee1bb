package handlers

import (
	"net/http"

	listsvc "listkeeper/internal/services/listparams"

	"github.com/go-chi/chi/v5"
)

// ForgetSession drops a session's lists and stored params
func ForgetSession(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := chi.URLParam(r, "sid")
		if sid == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}
		if err := svc.Forget(r.Context(), sid); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
