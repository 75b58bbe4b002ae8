package router

import (
	"net/http"
	"time"

	"user-service/api"
	"user-service/internal/adapter/gin/handler"
	"user-service/internal/adapter/gin/middleware"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// SwaggerDocPath is where the OpenAPI document is served.
const SwaggerDocPath = "/openapi/user.swagger.json"

// Options holds router settings taken from configuration.
type Options struct {
	ServiceName   string
	AllowedOrigin string
	CORSMaxAge    time.Duration
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, opts Options, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(opts.AllowedOrigin, opts.CORSMaxAge))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	})

	router.GET(SwaggerDocPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", api.SwaggerJSON)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(SwaggerDocPath))))

	users := router.Group("/api/users")
	{
		users.GET("", userHandler.GetAllUsers)
		users.GET("/:id", userHandler.GetUserByID)
		users.POST("", userHandler.AddUser)
		users.PUT("", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}
