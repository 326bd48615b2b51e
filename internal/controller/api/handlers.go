package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/tutor_sessions/internal/model"
	"github.com/Freeeeeet/tutor_sessions/internal/service"
	"github.com/gin-gonic/gin"
)

type becomeTutorRequest struct {
	Bio      string   `json:"bio"`
	Subjects []string `json:"subjects"`
}

func (h *Handler) becomeTutor(c *gin.Context) {
	var req becomeTutorRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	profile, err := h.svc.Tutors.BecomeTutor(c.Request.Context(), currentUser(c), req.Bio, req.Subjects)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) myTutorProfile(c *gin.Context) {
	profile, err := h.svc.Tutors.GetByUserID(c.Request.Context(), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Слоты

func (h *Handler) createSlots(c *gin.Context) {
	var req service.CreateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.svc.Slots.CreateSlots(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) listTutorSlots(c *gin.Context) {
	tutorID, ok := pathID(c, "tutorId")
	if !ok {
		return
	}

	slots, err := h.svc.Slots.ListAvailable(c.Request.Context(), tutorID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": nonNil(slots)})
}

func (h *Handler) listMySlots(c *gin.Context) {
	slots, err := h.svc.Slots.ListMine(c.Request.Context(), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": nonNil(slots)})
}

func (h *Handler) listMyBookings(c *gin.Context) {
	slots, err := h.svc.Slots.ListMyBookings(c.Request.Context(), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": nonNil(slots)})
}

type bookSlotRequest struct {
	Subject string `json:"subject"`
	Notes   string `json:"notes"`
}

func (h *Handler) bookSlot(c *gin.Context) {
	slotID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req bookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.svc.Booking.BookSlot(c.Request.Context(), currentUser(c), slotID, req.Subject, req.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) disableSlot(c *gin.Context) {
	slotID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Slots.Disable(c.Request.Context(), currentUser(c), slotID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteSlot(c *gin.Context) {
	slotID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Slots.Delete(c.Request.Context(), currentUser(c), slotID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Сессии

func (h *Handler) bookAdHoc(c *gin.Context) {
	var req service.AdHocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.svc.Booking.BookAdHoc(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.svc.Sessions.List(c.Request.Context(), currentUser(c),
		model.SessionRole(c.Query("role")), model.SessionStatus(c.Query("status")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": nonNil(sessions)})
}

func (h *Handler) getSession(c *gin.Context) {
	h.sessionAction(c, h.svc.Sessions.Get)
}

func (h *Handler) completeSession(c *gin.Context) {
	h.sessionAction(c, h.svc.Sessions.Complete)
}

func (h *Handler) cancelSession(c *gin.Context) {
	h.sessionAction(c, h.svc.Sessions.Cancel)
}

func (h *Handler) sessionAction(c *gin.Context, action func(ctx context.Context, userID, sessionID int64) (*model.Session, error)) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	session, err := action(c.Request.Context(), currentUser(c), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) updateSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	session, err := h.svc.Sessions.Update(c.Request.Context(), currentUser(c), sessionID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) deleteSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Sessions.Delete(c.Request.Context(), currentUser(c), sessionID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Доступ к комнате

func (h *Handler) startSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.svc.Meeting.Start(c.Request.Context(), currentUser(c), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) issueJoinToken(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.svc.Meeting.IssueJoinToken(c.Request.Context(), currentUser(c), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) joinSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	url, err := h.svc.Meeting.Join(c.Request.Context(), service.JoinRequest{
		SessionID:    sessionID,
		Token:        c.Query("token"),
		BearerUserID: optionalUser(c),
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Повторяющиеся серии

func (h *Handler) createSeries(c *gin.Context) {
	var req service.RecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sessions, err := h.svc.Recurring.CreateSeries(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"parent_session_id": sessions[0].ID,
		"created":           len(sessions),
		"sessions":          sessions,
	})
}

func (h *Handler) listSeries(c *gin.Context) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	sessions, err := h.svc.Recurring.ListSeries(c.Request.Context(), currentUser(c), parentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) cancelSeries(c *gin.Context) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	count, err := h.svc.Recurring.CancelSeries(c.Request.Context(), currentUser(c), parentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": count})
}

// Админка

func (h *Handler) listJoinLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := h.svc.Meeting.ListJoinLogs(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"join_logs": nonNil(logs)})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
