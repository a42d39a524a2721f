package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/headless-pm/team-collab/internal/auth"
	"github.com/headless-pm/team-collab/internal/mcp"
)

// SetupRouter builds the engine. mcpServer may be nil.
func SetupRouter(handler *Handler, mcpServer *mcp.MCPServer) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestLogger(handler))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
		})
	})
	router.GET("/metrics", gin.WrapH(handler.metrics.Handler()))

	router.POST("/auth/login", handler.Login)

	authenticated := auth.AuthMiddleware(handler.jwtManager, handler.db)
	router.POST("/auth/switch", authenticated, handler.SwitchUser)

	api := router.Group("/api", authenticated)
	{
		api.GET("/me", handler.Me)
		api.GET("/users", handler.ListUsers)

		projects := api.Group("/projects/:project")
		{
			projects.GET("/tasks", handler.ListTasks)
			projects.GET("/tasks/summary", handler.TaskSummary)
			projects.POST("/tasks", handler.CreateTask)
			projects.GET("/milestones", handler.ListMilestones)
		}

		tasks := api.Group("/tasks/:id")
		{
			tasks.PUT("/status", handler.UpdateTaskStatus)
			tasks.PUT("/blocker", handler.FlagBlocker)
			tasks.DELETE("/blocker", handler.ResolveBlocker)
			tasks.GET("/activity", handler.TaskActivity)
		}

		api.GET("/milestones/:id/status", handler.MilestoneStatus)

		conversations := api.Group("/conversations/:type/:target")
		{
			conversations.GET("/messages", handler.ListMessages)
			conversations.POST("/messages", handler.SendMessage)
		}
	}

	if mcpServer != nil {
		mcpServer.RegisterRoutes(router.Group("/mcp", authenticated))
	}

	return router
}

// requestLogger logs each request and records its latency under the matched
// route pattern.
func requestLogger(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		h.metrics.ObserveRequest(c.Request.Method, route, code, elapsed)

		level := slog.LevelInfo
		if code >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		h.logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", code,
			"duration", elapsed,
			"client", c.ClientIP(),
		)
	}
}
