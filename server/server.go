// Package server assembles the HTTP stack: the echo router, the REST API
// routes, and the optional MCP endpoint, with graceful shutdown.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/taskchat/taskchat/agent"
	apiv1 "github.com/taskchat/taskchat/server/router/api/v1"
	"github.com/taskchat/taskchat/server/router/mcpserver"
	"github.com/taskchat/taskchat/server/profile"
	"github.com/taskchat/taskchat/service"
	"github.com/taskchat/taskchat/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	httpServer *http.Server
	mcpServer  *mcpserver.Server
}

func NewServer(p *profile.Profile, st *store.Store, ag agent.Agent) *Server {
	e := echo.New()

	tasks := service.NewTaskService(st)
	chat := service.NewChatService(st)

	e.GET("/healthz", func(c *echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiService := apiv1.NewAPIV1Service(p, st, tasks, chat, ag)
	apiService.RegisterRoutes(e)

	s := &Server{
		Profile:    p,
		Store:      st,
		echoServer: e,
		httpServer: &http.Server{
			Addr:              p.ListenAddr(),
			Handler:           e,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	if p.MCPAddr != "" {
		s.mcpServer = mcpserver.NewServer(p, tasks)
	}
	return s
}

// Start serves HTTP (and MCP when configured) until Shutdown is called.
// It blocks until the HTTP listener stops.
func (s *Server) Start(ctx context.Context) error {
	if s.mcpServer != nil {
		go func() {
			slog.Info("mcp server listening", "addr", s.Profile.MCPAddr)
			if err := s.mcpServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("mcp server stopped", "err", err)
			}
		}()
	}

	slog.Info("http server listening", "addr", s.httpServer.Addr, "mode", s.Profile.Mode)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if s.mcpServer != nil {
		if err := s.mcpServer.Shutdown(ctx); err != nil {
			slog.Error("failed to shut down mcp server", "err", err)
		}
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "err", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "err", err)
	}
	slog.Info("server shut down")
}
