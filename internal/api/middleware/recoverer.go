// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/ManuGH/timeapi/internal/log"
)

// Recoverer turns a handler panic into a logged 500. http.ErrAbortHandler
// is re-raised so the server can abort the connection as intended.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
				panic(rec)
			}
			logger := log.WithComponentFromContext(r.Context(), "http")
			logger.Error().
				Str(log.FieldEvent, "request.panic").
				Str(log.FieldMethod, r.Method).
				Str(log.FieldPath, r.URL.Path).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"Internal Server Error"}`))
		}()
		next.ServeHTTP(w, r)
	})
}
