package middleware

import (
	"net/http"

	"github.com/memotag/memotag-server/internal/httputil"
)

type contextKey string

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
