package main

import (
	"fmt"
	"net/http"

	"github.com/mcdev12/roomsync/go/internal/gateway"
	"github.com/mcdev12/roomsync/go/internal/httpapi"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(services *Services, hub *gateway.ConnectionManager) *http.Server {
	handler := httpapi.NewHandler(services.Service, services.Resolver, hub)
	mux := httpapi.Routes(handler)

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", getEnv("PORT", "8080")),
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}
}
