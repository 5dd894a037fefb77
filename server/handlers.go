package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/careerforge/careerforge/models"
	"github.com/careerforge/careerforge/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sendMessage godoc
// @Summary Send a chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Chat message"
// @Success 200 {object} models.Envelope{data=models.ChatReply}
// @Router /chat [post]
func (s *Server) sendMessage(c *gin.Context) {
	var req models.ChatRequest
	if err := s.bindChat(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	s.send(c, req)
}

// sendDocument godoc
// @Summary Ask about a document
// @Tags chat
// @Accept json
// @Produce json
// @Param request body models.ChatRequest true "Chat message with document"
// @Success 200 {object} models.Envelope{data=models.ChatReply}
// @Router /chat/document [post]
func (s *Server) sendDocument(c *gin.Context) {
	var req models.ChatRequest
	if err := s.bindChat(c, &req); err != nil {
		s.respondError(c, err)
		return
	}
	if strings.TrimSpace(req.DocumentText) == "" && len(req.Files) == 0 {
		s.respondError(c, fmt.Errorf("%w: documentText or files are required", sessions.ErrValidation))
		return
	}
	s.send(c, req)
}

func (s *Server) bindChat(c *gin.Context, req *models.ChatRequest) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", sessions.ErrValidation, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %v", sessions.ErrValidation, err)
}

func (s *Server) send(c *gin.Context, req models.ChatRequest) {
	result, err := s.service.SendMessage(c.Request.Context(), sessions.SendRequest{
		UserID:       c.GetString(userIDKey),
		SessionID:    req.SessionID,
		Message:      req.Message,
		Files:        req.Files,
		DocumentText: req.DocumentText,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, "Message sent successfully", result.ChatReply)
}

// listSessions godoc
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Success 200 {object} models.Envelope{data=models.SessionList}
// @Router /chat/sessions [get]
func (s *Server) listSessions(c *gin.Context) {
	list, err := s.service.ListSessions(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		s.respondError(c, err)
		return
	}

	views := make([]models.SessionView, 0, len(list))
	for i := range list {
		views = append(views, list[i].View())
	}
	respondOK(c, "", models.SessionList{Sessions: views, TotalSessions: len(views)})
}

// getSession godoc
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Envelope{data=models.SessionView}
// @Router /chat/session/{id} [get]
func (s *Server) getSession(c *gin.Context) {
	session, err := s.service.GetSession(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, "", session.View())
}

// endSession godoc
// @Summary End a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Envelope{data=models.SessionView}
// @Router /chat/session/{id}/end [put]
func (s *Server) endSession(c *gin.Context) {
	session, err := s.service.EndSession(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, "Session ended", session.View())
}

// deleteSession godoc
// @Summary Delete a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Envelope
// @Router /chat/session/{id} [delete]
func (s *Server) deleteSession(c *gin.Context) {
	if err := s.service.DeleteSession(c.Request.Context(), c.GetString(userIDKey), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, "Session deleted", nil)
}

func (s *Server) chatSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(s.maxBody)
	sessions.NewChatSocket(conn, s.service, c.GetString(userIDKey), s.logger).Serve(s.ctx)
}
