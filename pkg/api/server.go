// Package api is a minimal Gin HTTP surface over pkg/services and
// pkg/orchestrator (spec.md §6's operational surface), intentionally kept
// small since dashboards and auth are explicit Non-goals.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stratlab/stratlab/internal/app"
	"github.com/stratlab/stratlab/pkg/database"
	"github.com/stratlab/stratlab/pkg/version"
)

// Server wraps a configured *gin.Engine and the App it serves.
type Server struct {
	engine *gin.Engine
	app    *app.App
}

// NewServer builds the router and registers every route.
func NewServer(a *app.App) *Server {
	engine := gin.Default()
	s := &Server{engine: engine, app: a}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/version", s.handleVersion)

	agents := s.engine.Group("/agents")
	{
		agents.POST("", s.handleCreateAgent)
		agents.GET("", s.handleListAgents)
		agents.POST("/:id/pause", s.handlePauseAgent)
		agents.POST("/:id/resume", s.handleResumeAgent)
		agents.POST("/:id/graduate", s.handleGraduateAgent)
		agents.POST("/:id/demote", s.handleDemoteAgent)
		agents.POST("/:id/iterations/run-once", s.handleRunOnce)
		agents.POST("/:id/iterations/run-continuous", s.handleRunContinuous)
		agents.GET("/:id/iterations", s.handleListIterations)
		agents.POST("/:id/iterations/:iterationId/review", s.handleReviewIteration)
		agents.GET("/:id/knowledge", s.handleListKnowledge)
		agents.GET("/:id/versions", s.handleListVersions)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health, err := database.Health(ctx, s.app.DB.DB())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": health, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": health})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": version.Full()})
}
