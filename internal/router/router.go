package router

import (
	"net/http"
	"strings"

	"boardly/internal/config"
	"boardly/internal/handlers"
	"boardly/internal/middleware"
	"boardly/internal/rate"
	"boardly/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes installs sessions, identity resolution and every route on r.
// The HTML renderer is set by the caller.
func RegisterRoutes(r *gin.Engine, conn *gorm.DB, cfg config.Config) error {
	limiter, err := rate.New(rate.DefaultCapacity)
	if err != nil {
		return err
	}

	// Services
	votes := services.NewVoteService(conn)
	posts := services.NewPostService(conn, votes)
	comments := services.NewCommentService(conn, votes)
	boards := services.NewBoardService(conn)
	users := services.NewUserService(conn, posts, comments)

	// Handlers
	authHandler := handlers.NewAuthHandler(users)
	voteHandler := handlers.NewVoteHandler(votes)
	storyHandler := handlers.NewStoryHandler(posts, boards)
	commentHandler := handlers.NewCommentHandler(comments)
	boardHandler := handlers.NewBoardHandler(boards, posts)
	userHandler := handlers.NewUserHandler(users)
	adminHandler := handlers.NewAdminHandler(users, boards, posts)

	store := cookie.NewStore([]byte(cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(cfg.SessionName, store))
	r.Use(middleware.LoadUser(users))

	writeLimit := middleware.RateLimit(limiter, "write", cfg.RateLimits.WritePerMinute)
	voteLimit := middleware.RateLimit(limiter, "vote", cfg.RateLimits.VotePerMinute)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := conn.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.String(http.StatusServiceUnavailable, "database unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	// HTML pages
	r.GET("/", storyHandler.Home)
	r.GET("/b/:slug", boardHandler.Show)
	r.GET("/p/:id", storyHandler.Show)
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			middleware.AbortJSON(c, http.StatusNotFound, string(services.KindNotFound), "no such endpoint")
			return
		}
		handlers.RenderError(c, http.StatusNotFound, "page not found")
	})

	api := r.Group("/api")

	// Public API
	api.POST("/auth/signup", writeLimit, authHandler.Signup)
	api.POST("/auth/login", writeLimit, authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/boards", boardHandler.List)
	api.GET("/boards/:slug", boardHandler.Get)
	api.GET("/posts", storyHandler.List)
	api.GET("/posts/:id", storyHandler.Detail)

	// Signed-in API
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/votes", voteLimit, voteHandler.Vote)
		authorized.POST("/posts", writeLimit, storyHandler.Create)
		authorized.PATCH("/posts/:id", writeLimit, storyHandler.Update)
		authorized.DELETE("/posts/:id", storyHandler.Delete)
		authorized.POST("/comments", writeLimit, commentHandler.Create)
		authorized.PATCH("/comments/:id", writeLimit, commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
		authorized.GET("/profile", userHandler.Profile)
		authorized.PATCH("/profile", writeLimit, userHandler.UpdateProfile)
	}

	// Admin API
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/users", adminHandler.ListUsers)
		admin.PATCH("/users/:id", adminHandler.SetRole)
		admin.DELETE("/users/:id", adminHandler.DeleteUser)
		admin.GET("/boards", adminHandler.ListBoards)
		admin.POST("/boards", adminHandler.CreateBoard)
		admin.PATCH("/boards/:id", adminHandler.UpdateBoard)
		admin.DELETE("/boards/:id", adminHandler.DeleteBoard)
		admin.GET("/posts", adminHandler.ListPosts)
	}

	return nil
}
