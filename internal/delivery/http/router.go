package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/knotless/knot-backend/internal/delivery/http/handler"
	"github.com/knotless/knot-backend/internal/delivery/http/middleware"
)

type Router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	matchHandler   *handler.MatchHandler
	convHandler    *handler.ConversationHandler
	authMiddleware *middleware.AuthMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	matchHandler *handler.MatchHandler,
	convHandler *handler.ConversationHandler,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		authHandler:    authHandler,
		userHandler:    userHandler,
		matchHandler:   matchHandler,
		convHandler:    convHandler,
		authMiddleware: authMiddleware,
	}
}

// dobFormat matches the DD-MM-YYYY dates of birth users register with.
const dobFormat = "02-01-2006"

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("dob", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(dobFormat, fl.Field().String())
			return err == nil
		})
	}
}

func (r *Router) Setup() *gin.Engine {
	registerValidators()

	router := gin.Default()

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/me", r.authMiddleware.RequireAuth(), r.authHandler.Me)
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			// User routes
			user := protected.Group("/user")
			{
				user.GET("", r.userHandler.Get)
				user.PUT("", r.userHandler.Update)
				user.DELETE("", r.userHandler.Delete)
			}

			// Match routes
			match := protected.Group("/match")
			{
				match.GET("/", r.matchHandler.Pending)
				match.GET("/find", r.matchHandler.Find)
				match.PUT("/accept/:user_id", r.matchHandler.Accept)
				match.PUT("/reject/:user_id", r.matchHandler.Reject)
			}

			// Conversation routes
			conv := protected.Group("/conversation")
			{
				conv.GET("/with/:user_id", r.convHandler.Get)
				conv.POST("/send/:conversation_id", r.convHandler.SendMessage)
			}
		}
	}

	return router
}
