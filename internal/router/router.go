package router

import (
	"echoboard/internal/handlers"
	"echoboard/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	feedbackHandler := handlers.NewFeedbackHandler()
	voteHandler := handlers.NewVoteHandler()
	commentHandler := handlers.NewCommentHandler()
	mergeHandler := handlers.NewMergeHandler()
	notificationHandler := handlers.NewNotificationHandler()

	api := r.Group("/api")

	// Public routes. Reactions and comments stay here on purpose: anonymous
	// visitors carry a fingerprint header instead of a session, and the
	// board policy decides per board whether that is enough.
	api.GET("/boards/:id/items", feedbackHandler.ListByBoard)
	api.GET("/p/:pid", feedbackHandler.Detail)
	api.POST("/p/:pid", feedbackHandler.Update)
	api.POST("/submit", feedbackHandler.Create)

	api.POST("/p/:pid/comment", commentHandler.Create)
	api.POST("/comment/:cid/edit", commentHandler.Edit)
	api.DELETE("/comment/:cid", commentHandler.Delete)

	api.POST("/vote/:type/:id", voteHandler.Vote)
	api.POST("/vote/:type/:id/down", voteHandler.Downvote)
	api.POST("/report/:type/:id", voteHandler.Report)

	api.POST("/signup", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/comment/:cid/pin", commentHandler.Pin)

		authorized.POST("/merge", mergeHandler.Merge)
		authorized.POST("/p/:pid/merge-here", mergeHandler.MergeHere)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
	}
}
