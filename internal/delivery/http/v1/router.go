package v1

import (
	"net/http"

	"agency-contact-backend/config"
	_ "agency-contact-backend/docs" // Important for Swagger
	"agency-contact-backend/internal/delivery/http/middleware"
	"agency-contact-backend/internal/delivery/http/response"
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/internal/usecase"
	"agency-contact-backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ContactUC      domain.ContactUsecase
	RateLimitStore domain.RateLimitStore
	SecurityLogger *security.SecurityLogger
	HealthUC       usecase.HealthUsecase
	Config         *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.AllowedOrigins)) // CORS must be first!
	r.Use(middleware.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RequestID())
	r.Use(middleware.ClientID())
	r.Use(middleware.BodyLimit(deps.Config.MaxBodyBytes))
	r.Use(middleware.ErrorHandler())

	r.NoMethod(methodNotAllowed)
	r.NoRoute(routeNotFound)

	v1 := r.Group("/v1")

	// Health Check
	healthUC := deps.HealthUC
	if healthUC == nil {
		healthUC = usecase.NewHealthUsecase(nil)
	}
	v1.GET("/health", func(c *gin.Context) {
		status, ok := healthUC.Check(c.Request.Context())
		if !ok {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success:   false,
				Message:   "System degraded",
				Data:      status,
				RequestID: c.GetString("RequestID"),
			})
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	// Public routes
	contactLimit := middleware.RateLimitMiddleware(middleware.ContactRateLimitConfig(
		deps.RateLimitStore,
		deps.Config.ContactRateLimitFailClosed,
		deps.SecurityLogger,
	))
	NewContactHandler(v1, deps.ContactUC, contactLimit, deps.SecurityLogger)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
