package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stratlab/stratlab/pkg/orchestrator"
)

type runOptionsRequest struct {
	ManualGuidance string `json:"manual_guidance"`
	MaxIterations  int    `json:"max_iterations"`
	MinIterations  int    `json:"min_iterations"`
}

func (s *Server) handleRunOnce(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	var req runOptionsRequest
	_ = c.ShouldBindJSON(&req)

	if c.Query("stream") == "true" {
		s.streamRunContinuous(c, id, orchestrator.RunContinuousOptions{
			MinIterations: 0,
			MaxIterations: intPtr(1),
			RunOnce:       orchestrator.RunOnceOptions{ManualGuidance: req.ManualGuidance},
		})
		return
	}

	iter, err := s.app.Orchestrator.RunOnce(c.Request.Context(), id, orchestrator.RunOnceOptions{ManualGuidance: req.ManualGuidance})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, iter)
}

func (s *Server) handleRunContinuous(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	var req runOptionsRequest
	_ = c.ShouldBindJSON(&req)

	opts := orchestrator.RunContinuousOptions{
		MinIterations: req.MinIterations,
		RunOnce:       orchestrator.RunOnceOptions{ManualGuidance: req.ManualGuidance},
	}
	if req.MaxIterations > 0 {
		opts.MaxIterations = &req.MaxIterations
	}
	s.streamRunContinuous(c, id, opts)
}

// streamRunContinuous writes each orchestrator.Event as a newline-delimited
// JSON object, flushing after every iteration so a client sees progress
// without waiting for the whole run to finish.
func (s *Server) streamRunContinuous(c *gin.Context, agentID uuid.UUID, opts orchestrator.RunContinuousOptions) {
	events, err := s.app.Orchestrator.RunContinuous(c.Request.Context(), agentID, opts)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)
	enc := json.NewEncoder(c.Writer)
	for ev := range events {
		if ev.Err != nil {
			_ = enc.Encode(gin.H{"error": ev.Err.Error()})
		} else {
			_ = enc.Encode(ev.Iteration)
		}
		c.Writer.Flush()
	}
}

func intPtr(v int) *int { return &v }

func (s *Server) handleListIterations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	iters, err := s.app.Iterations.ListByAgent(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, iters)
}

type reviewRequest struct {
	Disposition string `json:"disposition" binding:"required"`
}

func (s *Server) handleReviewIteration(c *gin.Context) {
	agentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	iterationID, err := uuid.Parse(c.Param("iterationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid iteration id"})
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.app.Reviews.Review(c.Request.Context(), agentID, iterationID, req.Disposition); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Disposition})
}

func (s *Server) handleListKnowledge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	entries, err := s.app.Knowledge.List(c.Request.Context(), id, c.Query("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleListVersions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return
	}
	versions, err := s.app.Versions.List(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}
