package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	controllers "github.com/phillip/cleanup-sponsorship-go/controllers"
	middleware "github.com/phillip/cleanup-sponsorship-go/middleware"
	models "github.com/phillip/cleanup-sponsorship-go/models"
)

// NewRouter builds the engine with the global middleware chain.
func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	SetupRoutes(r, cfg)
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"ETag", "Last-Modified", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/auth/register", controllers.Register(cfg))
	r.POST("/auth/login", controllers.Login(cfg))

	// protected
	auth := middleware.AuthMiddleware(cfg)
	organizer := middleware.RequireRole(models.RoleOrganizer)
	sponsor := middleware.RequireRole(models.RoleSponsor)
	volunteer := middleware.RequireRole(models.RoleVolunteer)

	me := r.Group("/me")
	me.Use(auth)
	{
		me.GET("", controllers.GetMe(cfg))
		me.GET("/home", controllers.GetHome(cfg))
		me.PATCH("/preferences", controllers.UpdatePreferences(cfg))
	}

	// Events
	events := r.Group("/events")
	events.Use(auth)
	{
		events.GET("", controllers.ListEvents(cfg))
		events.GET("/:id", controllers.GetEvent(cfg))
		events.POST("", organizer, controllers.CreateEvent(cfg))
		events.PATCH("/:id", organizer, controllers.UpdateEvent(cfg))
		events.DELETE("/:id", organizer, controllers.DeleteEvent(cfg))

		events.POST("/:id/sponsorships", sponsor,
			middleware.RateLimit(cfg.Limiter, "sponsorship", cfg.Log),
			controllers.CreateSponsorship(cfg))
		events.GET("/:id/sponsorships", organizer, controllers.ListEventSponsorships(cfg))

		events.POST("/:id/registrations", volunteer, controllers.RegisterForEvent(cfg))
		events.GET("/:id/registrations", organizer, controllers.ListRegistrations(cfg))
		events.POST("/:id/checkin", organizer, controllers.CheckIn(cfg))
	}

	// Sponsorships
	sponsorships := r.Group("/sponsorships")
	sponsorships.Use(auth)
	{
		sponsorships.GET("/mine", sponsor, controllers.ListMySponsorships(cfg))
		sponsorships.GET("/report", sponsor, controllers.SponsorshipReport(cfg))
		sponsorships.PATCH("/:id/status", organizer, controllers.ReviewSponsorship(cfg))
	}
}
