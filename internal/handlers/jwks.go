package handlers

import (
	"net/http"

	"github.com/nkiryanov/identity/internal/handlers/render"
	"github.com/nkiryanov/identity/internal/keys"
)

// Publish public keys access tokens are verified with
func handleJWKS(keySet keys.KeySet) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		render.JSON(w, keySet)
	})
}
