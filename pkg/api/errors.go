package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stratlab/stratlab/pkg/orchestrator"
	"github.com/stratlab/stratlab/pkg/repo"
	"github.com/stratlab/stratlab/pkg/services"
)

// writeError maps a service/repo-layer error to an HTTP status and JSON
// body, in the manner of the teacher's mapServiceError.
func writeError(c *gin.Context, err error) {
	var validErr *services.ValidationError
	switch {
	case errors.As(err, &validErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validErr.Error()})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, repo.ErrAgentNotFound), errors.Is(err, repo.ErrIterationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, services.ErrInvalidStatusTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "resource already exists"})
	case errors.Is(err, orchestrator.ErrAgentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, orchestrator.ErrGenerationFailed), errors.Is(err, orchestrator.ErrSandboxFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrPersistenceFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		slog.Error("unexpected API error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
