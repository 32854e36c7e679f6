package api

import (
	"fmt"
	"net/http"

	"github.com/fastprodman/drawengine/internal/config"
)

// NewServer returns the engine API server listening on cfg.Port.
func NewServer(cfg config.HTTPConfig, svc Services) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(svc),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
