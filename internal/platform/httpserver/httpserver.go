package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. writeTimeout must exceed the API request
// timeout so chi's Timeout middleware answers before the connection drops.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	writeTimeout := 45 * time.Second
	if requestTimeout > 0 && requestTimeout+5*time.Second > writeTimeout {
		writeTimeout = requestTimeout + 5*time.Second
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
