// Package api - REST-интерфейс сервиса расписания.
package api

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_sessions/internal/service"
	"github.com/Freeeeeet/tutor_sessions/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier проверяет bearer-токены
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

type Services struct {
	Users     *service.UserService
	Tutors    *service.TutorService
	Slots     *service.SlotService
	Booking   *service.BookingService
	Sessions  *service.SessionService
	Recurring *service.RecurringService
	Meeting   *service.MeetingService
}

type Handler struct {
	svc      Services
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewRouter(svc Services, verifier TokenVerifier, logger *zap.Logger) *gin.Engine {
	h := &Handler{svc: svc, verifier: verifier, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// join доступен по ссылке без авторизации, bearer опционален
	router.GET("/sessions/:id/join", h.optionalAuth(), h.joinSession)

	authed := router.Group("/", h.requireAuth())

	tutors := authed.Group("/tutors")
	tutors.POST("/become", h.becomeTutor)
	tutors.GET("/me", h.myTutorProfile)

	slots := authed.Group("/slots")
	slots.POST("/create", h.createSlots)
	slots.GET("/tutor/:tutorId", h.listTutorSlots)
	slots.GET("/mine", h.listMySlots)
	slots.GET("/my-bookings", h.listMyBookings)
	slots.POST("/:id/book", h.bookSlot)
	slots.POST("/:id/disable", h.disableSlot)
	slots.DELETE("/:id", h.deleteSlot)

	sessions := authed.Group("/sessions")
	sessions.POST("", h.bookAdHoc)
	sessions.GET("", h.listSessions)
	sessions.GET("/:id", h.getSession)
	sessions.PUT("/:id", h.updateSession)
	sessions.DELETE("/:id", h.deleteSession)
	sessions.POST("/:id/complete", h.completeSession)
	sessions.POST("/:id/cancel", h.cancelSession)
	sessions.POST("/:id/start", h.startSession)
	sessions.POST("/:id/issue-join", h.issueJoinToken)

	recurring := authed.Group("/recurring-sessions")
	recurring.POST("", h.createSeries)
	recurring.GET("/:id", h.listSeries)
	recurring.DELETE("/:id", h.cancelSeries)

	admin := authed.Group("/admin", h.requireAdmin())
	admin.GET("/join-logs", h.listJoinLogs)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
