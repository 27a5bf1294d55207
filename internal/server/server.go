package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	"github.com/Tyrowin/gosignal/internal/signaling"
)

// Server bundles one signaling instance: its dispatcher, the hub feeding
// it, and the HTTP surface in front of both. Instances share no state.
type Server struct {
	config     Config
	dispatcher *signaling.Dispatcher
	hub        *Hub
	origins    *originPolicy
	upgrader   websocket.Upgrader
	iceServers []webrtc.ICEServer
	log        logging.LeveledLogger
}

// New builds a Server from cfg. A nil loggerFactory uses the pion default.
func New(cfg Config, loggerFactory logging.LoggerFactory) (*Server, error) {
	cfg = sanitizeConfig(cfg)
	if loggerFactory == nil {
		loggerFactory = NewLoggerFactory(cfg.LogLevel, nil)
	}

	iceServers, err := ICEServers(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid ICE server configuration: %w", err)
	}

	dispatcherConfig := signaling.DispatcherConfig{
		LoggerFactory: loggerFactory,
		WelcomeText:   "Connected to signaling server",
	}
	if len(iceServers) > 0 {
		dispatcherConfig.ICEServers = iceServers
	}
	dispatcher := signaling.NewDispatcher(dispatcherConfig)

	s := &Server{
		config:     cfg,
		dispatcher: dispatcher,
		hub:        NewHub(dispatcher, loggerFactory),
		origins:    newOriginPolicy(cfg.AllowedOrigins, loggerFactory.NewLogger("origin")),
		iceServers: iceServers,
		log:        loggerFactory.NewLogger("http"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.origins.check,
	}
	return s, nil
}

// Config returns the sanitized configuration in use.
func (s *Server) Config() Config { return s.config }

// Hub returns the server's hub for shutdown coordination.
func (s *Server) Hub() *Hub { return s.hub }

// Dispatcher returns the signaling dispatcher.
func (s *Server) Dispatcher() *signaling.Dispatcher { return s.dispatcher }

// StartHub runs the hub loop in a separate goroutine. Call it before
// serving HTTP.
func (s *Server) StartHub() {
	go s.hub.Run()
	s.log.Info("Hub started and ready to manage WebSocket connections")
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	return s.SetupRoutes()
}
