package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dreamerjackson/extractra/extract"
	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Requirements string `json:"requirements"`
	TargetURL    string `json:"target_url"`
	UserID       string `json:"user_id"`
}

// statusView is the wire shape of a task for status and stream responses;
// the result stays behind its own endpoint.
type statusView struct {
	TaskID       string         `json:"task_id"`
	Status       extract.Status `json:"status"`
	Progress     int            `json:"progress"`
	CurrentAgent extract.Agent  `json:"current_agent,omitempty"`
	Message      string         `json:"message,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func viewOf(t extract.Task) statusView {
	return statusView{
		TaskID:       t.ID,
		Status:       t.Status,
		Progress:     t.Progress,
		CurrentAgent: t.CurrentAgent,
		Message:      t.Message,
		Error:        t.Error,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (s *Server) createTask(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := s.orchestrator.Start(req.Requirements, req.TargetURL, req.UserID)
	if err != nil {
		if errors.Is(err, extract.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"task_id": t.ID,
		"status":  t.Status,
	})
}

func (s *Server) getStatus(c *gin.Context) {
	t, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, viewOf(t))
}

func (s *Server) getResult(c *gin.Context) {
	t, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if t.Status != extract.StatusCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"error":  extract.ErrNotReady.Error(),
			"status": t.Status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": t.ID,
		"result":  t.Result,
	})
}

func (s *Server) deleteTask(c *gin.Context) {
	deleted := s.store.Delete(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
