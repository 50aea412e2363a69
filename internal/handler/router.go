package handler

import (
	"net/http"
	"time"

	"adminapi/internal/middleware"
	"adminapi/internal/service"
	"adminapi/internal/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

func init() {
	// DTO rules live in `binding` tags; gin and the services share one validator.
	binding.Validator = validation.Default()
}

// Services is everything the HTTP layer calls into.
type Services struct {
	RBAC      service.RBACService
	Stores    service.StoreService
	Tours     service.TourService
	Auth      service.AuthService
	Dashboard service.DashboardService
	Audit     service.AuditService
}

type RouterConfig struct {
	AuthEnabled bool
	TokenTTL    time.Duration
	CORSOrigins []string
}

// NewRouter builds the gin engine with the middleware chain and every API route.
func NewRouter(log *logrus.Logger, cfg RouterConfig, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(log), middleware.Recovery())

	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
		corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	auth := middleware.NewAuth(cfg.AuthEnabled, svc.Auth, svc.RBAC)
	api := router.Group("")

	NewAuthHandler(svc.Auth, cfg.TokenTTL).RegisterRoutes(api, auth)
	NewPermissionHandler(svc.RBAC).RegisterRoutes(api, auth)
	NewRoleHandler(svc.RBAC).RegisterRoutes(api, auth)
	NewUserHandler(svc.RBAC).RegisterRoutes(api, auth)
	NewStoreHandler(svc.Stores).RegisterRoutes(api, auth)
	NewTourHandler(svc.Tours).RegisterRoutes(api, auth)
	NewDashboardHandler(svc.Dashboard).RegisterRoutes(api, auth)
	NewAuditHandler(svc.Audit).RegisterRoutes(api, auth)

	return router
}
