package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"listkeeper/internal/domain/listparams"
	middlewarex "listkeeper/internal/http/middleware"
	listsvc "listkeeper/internal/services/listparams"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 64 << 10

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type pageForm struct {
	Page int `schema:"page,required"`
}

type perPageForm struct {
	PerPage int `schema:"perPage,required"`
}

type sortForm struct {
	Field string `schema:"field,required"`
	Order string `schema:"order"`
}

type listResource struct {
	Name string `json:"name"`
}

// ListResources returns the configured resources
func ListResources(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := svc.Resources()
		out := make([]listResource, 0, len(names))
		for _, n := range names {
			out = append(out, listResource{Name: n})
		}
		writeJSON(w, http.StatusOK, map[string]any{"resources": out})
	}
}

// GetList visits the list with the request's query string and returns the
// resulting params
func GetList(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middlewarex.SessionID(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}

		snap, err := svc.Visit(r.Context(), sid, chi.URLParam(r, "resource"), r.URL.RawQuery)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// GetHistory returns the locations the session went through on the list
func GetHistory(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middlewarex.SessionID(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}

		entries, err := svc.History(sid, chi.URLParam(r, "resource"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.String())
		}
		writeJSON(w, http.StatusOK, map[string]any{"history": out})
	}
}

// SetPage changes the page and redirects to the new list location
func SetPage(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middlewarex.SessionID(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}
		var in pageForm
		if err := decodeForm(r, &in); err != nil {
			http.Error(w, "invalid page: "+err.Error(), http.StatusBadRequest)
			return
		}

		loc, err := svc.SetPage(r.Context(), sid, chi.URLParam(r, "resource"), in.Page)
		if err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, loc.String(), http.StatusSeeOther)
	}
}

func SetPerPage(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middlewarex.SessionID(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}
		var in perPageForm
		if err := decodeForm(r, &in); err != nil {
			http.Error(w, "invalid perPage: "+err.Error(), http.StatusBadRequest)
			return
		}

		loc, err := svc.SetPerPage(r.Context(), sid, chi.URLParam(r, "resource"), in.PerPage)
		if err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, loc.String(), http.StatusSeeOther)
	}
}

func SetSort(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middlewarex.SessionID(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}
		var in sortForm
		if err := decodeForm(r, &in); err != nil {
			http.Error(w, "invalid sort: "+err.Error(), http.StatusBadRequest)
			return
		}

		sort := listparams.Sort{Field: in.Field, Order: listparams.Order(in.Order)}
		loc, err := svc.SetSort(r.Context(), sid, chi.URLParam(r, "resource"), sort)
		if err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, loc.String(), http.StatusSeeOther)
	}
}

// SetFilters schedules a filter change; the body is the complete filter object
func SetFilters(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middlewarex.SessionID(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}
		raw, err := readBody(w, r)
		if err != nil {
			writeBodyError(w, err)
			return
		}
		var filters map[string]any
		if err := sonic.ConfigStd.Unmarshal(raw, &filters); err != nil {
			http.Error(w, "invalid filters: "+err.Error(), http.StatusBadRequest)
			return
		}

		if err := svc.SetFilters(r.Context(), sid, chi.URLParam(r, "resource"), listparams.Filter(filters)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// ShowFilter marks a filter as displayed. An optional {"defaultValue": …}
// body seeds its value.
func ShowFilter(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middlewarex.SessionID(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}
		raw, err := readBody(w, r)
		if err != nil {
			writeBodyError(w, err)
			return
		}
		var body map[string]any
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := sonic.ConfigStd.Unmarshal(raw, &body); err != nil {
				http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
				return
			}
		}

		var defaults []any
		if v, ok := body["defaultValue"]; ok {
			defaults = append(defaults, v)
		}
		err = svc.ShowFilter(r.Context(), sid, chi.URLParam(r, "resource"), chi.URLParam(r, "name"), defaults...)
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func HideFilter(svc *listsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := middlewarex.SessionID(r.Context())
		if !ok {
			http.Error(w, "session not found", http.StatusUnauthorized)
			return
		}

		if err := svc.HideFilter(r.Context(), sid, chi.URLParam(r, "resource"), chi.URLParam(r, "name")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
}

func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	return formDecoder.Decode(dst, r.Form)
}
