// Package httpapi exposes the Rule Engine over HTTP with chi, mirroring
// the teacher's /namespace/{namespace} routes but reshaped around this
// spec's collection-scoped requests.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ruleguard/ruleguard/engine"
)

// Router builds the chi router serving health, rule management, and
// request-execution endpoints.
func Router(eng *engine.Engine, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/collections/{collection}", func(r chi.Router) {
		r.Put("/rules", putRules(eng, log, false))
		r.Post("/rules", putRules(eng, log, true))
		r.Post("/requests", postRequest(eng, log))
	})

	return r
}

func putRules(eng *engine.Engine, log zerolog.Logger, add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := chi.URLParam(r, "collection")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, log, http.StatusBadRequest, err)
			return
		}
		var raw any
		if err := json.Unmarshal(body, &raw); err != nil {
			writeError(w, log, http.StatusBadRequest, err)
			return
		}

		if add {
			err = eng.Add(collection, raw)
		} else {
			err = eng.Set(collection, raw)
		}
		if err != nil {
			writeError(w, log, http.StatusBadRequest, err)
			return
		}
		log.Info().Str("collection", collection).Bool("add", add).Msg("rules compiled")
		_, _ = w.Write([]byte("OK"))
	}
}

func postRequest(eng *engine.Engine, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := chi.URLParam(r, "collection")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, log, http.StatusBadRequest, err)
			return
		}

		req := engine.Request{}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, log, http.StatusBadRequest, err)
			return
		}
		req.Collection = collection
		if req.RequestID == "" {
			req.RequestID = uuid.NewString()
		}

		log.Info().
			Str("requestId", req.RequestID).
			Str("collection", req.Collection).
			Str("action", req.Action).
			Msg("executing request")

		result, err := eng.Execute(r.Context(), &req)
		if err != nil {
			var denied *engine.PermissionDeniedError
			if errors.As(err, &denied) {
				writeJSON(w, log, http.StatusForbidden, map[string]any{"errors": denied.Errors})
				return
			}
			writeError(w, log, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, log, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, log, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, log zerolog.Logger, status int, err error) {
	log.Warn().Err(err).Msg("request failed")
	http.Error(w, err.Error(), status)
}
