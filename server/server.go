// Package server exposes the chat core over HTTP and WebSocket.
package server

import (
	"context"
	"net/http"

	"github.com/careerforge/careerforge/docs"
	"github.com/careerforge/careerforge/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping() error
}

// Server routes API requests to the session service
type Server struct {
	router   *gin.Engine
	service  *sessions.Service
	store    Pinger
	logger   *zap.Logger
	upgrader websocket.Upgrader
	maxBody  int64

	// sockets outlive their request; ctx ends them on shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the router. mode is a gin mode ("release", "debug", "test").
func New(service *sessions.Service, store Pinger, logger *zap.Logger, mode string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode != "" {
		gin.SetMode(mode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:  gin.New(),
		service: service,
		store:   store,
		logger:  logger.Named("http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin checks belong to the gateway that authenticates callers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		maxBody: DefaultMaxBodyBytes,
		ctx:     ctx,
		cancel:  cancel,
	}

	s.router.Use(requestLogger(s.logger), recovery(s.logger), limitBody(func() int64 { return s.maxBody }))
	s.router.GET("/health", s.health)

	api := s.router.Group("/api")
	api.GET("/docs/doc.json", s.apiDoc)

	chat := api.Group("/chat", requireUser())
	chat.POST("", s.sendMessage)
	chat.POST("/document", s.sendDocument)
	chat.GET("/sessions", s.listSessions)
	chat.GET("/session/:id", s.getSession)
	chat.PUT("/session/:id/end", s.endSession)
	chat.DELETE("/session/:id", s.deleteSession)
	chat.GET("/ws", s.chatSocket)

	return s
}

// SetMaxBodyBytes caps request bodies and WebSocket frames. Call it before
// serving.
func (s *Server) SetMaxBodyBytes(n int64) {
	if n > 0 {
		s.maxBody = n
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the engine for additional routes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Close ends open WebSocket sessions
func (s *Server) Close() {
	s.cancel()
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "ok"})
}

func (s *Server) apiDoc(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
