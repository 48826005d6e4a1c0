package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/egware/erpagent/agent"
)

type ChatRequest struct {
	Message  string `json:"message" binding:"required"`
	UserID   string `json:"user_id"`
	ThreadID string `json:"thread_id"`
}

type ChatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
	Agent    string `json:"agent"`
}

func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}

	reply, err := s.deps.Conversation.HandleMessage(c.Request.Context(), req.ThreadID, req.Message)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, agent.ErrEmptyMessage) || errors.Is(err, agent.ErrEmptyThread) {
			status = http.StatusBadRequest
		}
		s.log.Error().Err(err).Str("thread_id", req.ThreadID).Msg("chat turn failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response: reply.Text,
		ThreadID: reply.ThreadID,
		Agent:    string(reply.Persona),
	})
}

var agentRoles = map[agent.Persona]string{
	agent.PersonaExecutive: "General business assistant and request router",
	agent.PersonaContracts: "Contract lifecycle and partner management",
	agent.PersonaHR:        "Employees, leave, recruitment and attendance",
	agent.PersonaFinance:   "Invoices, payments, reports and sales analytics",
}

func (s *Server) agentsStatus(c *gin.Context) {
	agents := make(map[string]gin.H, len(agent.Personas))
	for _, p := range agent.Personas {
		agents[string(p)] = gin.H{
			"name":   string(p),
			"role":   agentRoles[p],
			"status": "active",
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"agents":    agents,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
