package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/config"
	"github.com/stratlab/stratlab/pkg/models"
	"github.com/stratlab/stratlab/pkg/services"
)

type createAgentRequest struct {
	Name            string             `json:"name" binding:"required"`
	Instructions    string             `json:"instructions" binding:"required"`
	Personality     models.Personality `json:"personality"`
	DiscoveryMode   bool               `json:"discovery_mode"`
	BackoffSchedule string             `json:"backoff_schedule"`
}

func (s *Server) handleCreateAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agent, err := s.app.Agents.Create(c.Request.Context(), services.CreateAgentRequest{
		Name:            req.Name,
		Instructions:    req.Instructions,
		Personality:     req.Personality,
		DiscoveryMode:   req.DiscoveryMode,
		BackoffSchedule: req.BackoffSchedule,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

func (s *Server) handleListAgents(c *gin.Context) {
	agents, err := s.app.Agents.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

func (s *Server) handlePauseAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	ctx := c.Request.Context()
	if err := s.app.Agents.ChangeStatus(ctx, id, string(config.AgentStatusPaused), false); err != nil {
		writeError(c, err)
		return
	}
	_ = s.app.Activity.Record(ctx, id, "agent_paused_manual", nil)
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

func (s *Server) handleResumeAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	to := c.Query("to")
	if to == "" {
		to = string(config.AgentStatusLearning)
	}
	ctx := c.Request.Context()
	if err := s.app.Agents.ChangeStatus(ctx, id, to, true); err != nil {
		writeError(c, err)
		return
	}
	_ = s.app.Activity.Record(ctx, id, "agent_resumed_manual", map[string]any{"to_status": to})
	c.JSON(http.StatusOK, gin.H{"status": to})
}

func (s *Server) handleGraduateAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	force := c.Query("force") == "true"

	promoted, metrics, err := s.app.Graduation.Evaluate(c.Request.Context(), id, force)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promoted": promoted, "metrics": metrics})
}

func (s *Server) handleDemoteAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	to := c.Query("to")
	if to == "" {
		to = string(config.AgentStatusLearning)
	}
	ctx := c.Request.Context()
	if err := s.app.Agents.ChangeStatus(ctx, id, to, true); err != nil {
		writeError(c, err)
		return
	}
	_ = s.app.Activity.Record(ctx, id, "agent_demoted", map[string]any{"to_status": to})
	c.JSON(http.StatusOK, gin.H{"status": to})
}
