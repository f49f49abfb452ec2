package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

func Cors(allowedOrigins []string) Middleware {
	options := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}
	if !slices.Contains(allowedOrigins, "*") {
		options.AllowCredentials = true
	}
	return cors.New(options).Handler
}
