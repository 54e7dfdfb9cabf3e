package middleware

import "net/http"

// CORS applies cross-origin headers and answers preflight requests.
// An empty allowedOrigins permits any origin.
func CORS(allowedOrigins string, next http.Handler) http.Handler {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
