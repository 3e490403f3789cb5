package api

import (
	"log"
	stdhttp "net/http"
	"os"
	"strings"
	"time"

	intconfig "directionmap/internal/config"
	"directionmap/internal/geo"
	h "directionmap/internal/http/handlers"
	"directionmap/internal/http/middleware"
	"directionmap/internal/repositories"
	"directionmap/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), corsMiddleware())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	// Map interaction layer (static Leaflet client).
	r.StaticFile("/", "./web/index.html")
	r.StaticFile("/app.js", "./web/app.js")

	nominatim := geo.NewNominatimClient(env.NominatimBaseURL)
	osrm := geo.NewOSRMClient(env.OSRMBaseURL)

	routeRepo := repositories.RouteRepository{}
	routeService := services.RouteService{
		Repo:     routeRepo,
		Geocoder: nominatim,
		Paths:    osrm,
	}

	routeHandler := h.RouteHandler{
		Service: routeService,
		Export:  services.ExportService{Repo: routeRepo},
	}
	geoHandler := h.GeoHandler{Searcher: nominatim}
	authHandler := h.AuthHandler{Secret: []byte(env.JWTSecret)}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		auth := api.Group("/auth")
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)

		authed := api.Group("")
		authed.Use(middleware.RequireAuth([]byte(env.JWTSecret)))

		authed.GET("/dashboard", routeHandler.Dashboard)

		routes := authed.Group("/routes")
		routes.POST("", routeHandler.CreateRoute)
		routes.PUT("/:id", routeHandler.UpdateRoute)
		routes.DELETE("/bulk", routeHandler.BulkDeleteRoutes)
		routes.DELETE("/:id", routeHandler.DeleteRoute)
		routes.GET("/:id/export", routeHandler.ExportRoutePDF)

		geoGroup := authed.Group("/geo")
		geoGroup.GET("/search", geoHandler.SearchLocations)
		geoGroup.GET("/reverse", geoHandler.ReverseGeocode)
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	origins := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:5173",
		"http://127.0.0.1:5173",
		"http://localhost:8080",
	}
	if env := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); env != "" {
		origins = origins[:0]
		for _, o := range strings.Split(env, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}
