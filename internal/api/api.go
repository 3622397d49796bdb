package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/susu3304/finbot/internal/ledger"
)

// Store is what the ops API reads.
type Store interface {
	Ping(ctx context.Context) error
	PendingReminders(ctx context.Context, chatID string) ([]ledger.Reminder, error)
}

type API struct {
	router       *mux.Router
	store        Store
	bind         string
	jwtSecret    []byte
	storeTimeout time.Duration
	server       *http.Server
}

func New(bind, jwtSecret string, store Store, storeTimeout time.Duration) *API {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	api := &API{
		router:       mux.NewRouter(),
		store:        store,
		bind:         bind,
		jwtSecret:    []byte(jwtSecret),
		storeTimeout: storeTimeout,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Public endpoints
	a.router.HandleFunc("/healthz", a.handleHealth).Methods("GET")

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/chats/{chat_id}/reminders", a.handleChatReminders).Methods("GET")
}

// Handler returns the router wrapped with CORS.
func (a *API) Handler() http.Handler {
	// Note: When AllowedOrigins is "*", AllowCredentials must be false for security
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

func (a *API) Start() error {
	a.server = &http.Server{
		Addr:              a.bind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("API server listening on http://%s", a.bind)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
