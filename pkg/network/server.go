package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/tileworld/pkg/dialogue"
	"github.com/cbodonnell/tileworld/pkg/log"
	"github.com/cbodonnell/tileworld/pkg/queue"
	"github.com/cbodonnell/tileworld/pkg/state"
	"github.com/gorilla/mux"
)

// Server is the HTTP and WebSocket surface of the world. It only reads published snapshots and
// enqueues commands; it never touches the simulation directly.
type Server struct {
	server  *http.Server
	tls     *TLSConfig
	clients *ClientManager
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewServerOptions struct {
	Port     int
	TLS      *TLSConfig
	Commands queue.Queue
	State    state.StateManager
	Maps     ScreenMapProvider
	Dialogue *dialogue.Service
	Clients  *ClientManager
}

// NewServer creates a new http.Server with every route registered.
func NewServer(opts NewServerOptions) *Server {
	clients := opts.Clients
	if clients == nil {
		clients = NewClientManager()
	}
	return &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", opts.Port),
			Handler: NewRouter(opts, clients),
		},
		tls:     opts.TLS,
		clients: clients,
	}
}

// NewRouter registers the routes on a gorilla/mux router.
func NewRouter(opts NewServerOptions, clients *ClientManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware, logMiddleware)

	r.HandleFunc("/state", HandleGetState(opts.State)).Methods(http.MethodGet)
	r.HandleFunc("/events", HandleGetEvents(opts.State)).Methods(http.MethodGet)
	r.HandleFunc("/screens/{name}/map", HandleGetScreenMap(opts.Maps)).Methods(http.MethodGet)
	r.HandleFunc("/screens/{name}/activate", HandleActivateScreen(opts.Commands, opts.Maps)).Methods(http.MethodPost)

	r.HandleFunc("/player/join", HandleJoin(opts.Commands)).Methods(http.MethodPost)
	r.HandleFunc("/player/leave", HandleLeave(opts.Commands)).Methods(http.MethodPost)
	r.HandleFunc("/player/input", HandleInput(opts.Commands)).Methods(http.MethodPost)

	r.HandleFunc("/control/pause", HandleTogglePause(opts.Commands)).Methods(http.MethodPost)
	r.HandleFunc("/control/speed", HandleCycleSpeed(opts.Commands)).Methods(http.MethodPost)

	if opts.Dialogue != nil {
		r.HandleFunc("/dialogue/{npc}/start", HandleStartDialogue(opts.State, opts.Dialogue)).Methods(http.MethodPost)
		r.HandleFunc("/dialogue/{npc}/say", HandleSay(opts.State, opts.Dialogue, opts.Commands)).Methods(http.MethodPost)
		r.HandleFunc("/dialogue/{npc}/end", HandleEndDialogue(opts.Dialogue, opts.Commands)).Methods(http.MethodPost)
	}

	r.HandleFunc("/ws", HandleWebSocket(clients)).Methods(http.MethodGet)
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Trace("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// Clients returns the observer connections snapshots are broadcast to.
func (s *Server) Clients() *ClientManager {
	return s.clients
}

// Start serves until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("Server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("Server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("Server closed")
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the server down and drops every observer connection.
func (s *Server) Stop(ctx context.Context) error {
	s.clients.CloseAll()
	return s.server.Shutdown(ctx)
}
