package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prepview/prepview/internal/api/handlers"
	"github.com/prepview/prepview/internal/api/middleware"
)

type Deps struct {
	Interview *handlers.InterviewHandler
	History   *handlers.HistoryHandler
	Resume    *handlers.ResumeHandler
	WS        *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/interview/start", d.Interview.Start)
	auth.GET("/interview/:session_id", d.Interview.State)
	auth.POST("/interview/:session_id/recording/toggle", d.Interview.ToggleRecording)
	auth.POST("/interview/:session_id/video/toggle", d.Interview.ToggleVideo)
	auth.POST("/interview/:session_id/end", d.Interview.End)
	auth.GET("/interview/:session_id/transcript", d.Interview.Transcript)

	auth.GET("/history", d.History.List)
	auth.GET("/history/stats", d.History.Stats)
	auth.GET("/history/:id", d.History.Get)
	auth.DELETE("/history/:id", d.History.Delete)
	auth.GET("/history/:id/transcript", d.History.Transcript)
	auth.POST("/coding/click", d.History.CodingClick)
	auth.GET("/coding", d.History.ListCoding)

	auth.POST("/resume/upload", d.Resume.Upload)
	auth.GET("/resume/latest", d.Resume.Latest)

	// WebSocket
	auth.GET("/ws/interview/:session_id", d.WS.SessionWS)
}
