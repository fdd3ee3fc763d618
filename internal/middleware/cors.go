package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the admin panel and chat widget to call the API from any
// origin. The request origin is echoed back so credentialed calls work.
var CORS = cors.Handler(cors.Options{
	AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
	AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	AllowedHeaders:   []string{"*"},
	AllowCredentials: true,
	MaxAge:           300,
})
