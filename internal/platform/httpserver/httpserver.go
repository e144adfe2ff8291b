package httpserver

import (
	"net/http"
	"time"
)

// New builds the console HTTP server. Write and idle timeouts keep a stalled
// console client from pinning connections on a long-running bot process.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
