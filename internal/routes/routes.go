package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/auth"
	"github.com/nexustechhub/nexus-api/internal/handlers"
	"github.com/nexustechhub/nexus-api/internal/middleware"
	"github.com/nexustechhub/nexus-api/internal/validation"
)

// Options carries what the router needs besides the handlers.
type Options struct {
	Tokens         *auth.Tokens
	CORSOrigins    []string
	TrustedProxies []string // nil trusts no proxy headers
	ContactLimiter *middleware.IPLimiter
	Log            *zap.Logger
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	if err := validation.RegisterGin(); err != nil {
		opts.Log.Fatal("register validators", zap.Error(err))
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		opts.Log.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}

	// --- Global middleware ---
	// CORS must be first so preflights never hit auth.
	router.Use(middleware.CORS(opts.CORSOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(opts.Log))
	router.Use(gin.Recovery())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found", "error": "Route not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "Method not allowed", "error": "Method " + c.Request.Method + " is not allowed on this route"})
	})

	limiter := opts.ContactLimiter
	if limiter == nil {
		limiter = middleware.NewIPLimiter(5)
	}
	requireAuth := middleware.AuthMiddleware(opts.Tokens)

	api := router.Group("/api")
	{
		// --- Health (Public) ---
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
		})

		// --- Contact & Newsletter (Public, rate limited) ---
		api.POST("/contact", middleware.RateLimit(limiter), h.SubmitContact)
		api.POST("/newsletter", middleware.RateLimit(limiter), h.Subscribe)

		// --- Auth Routes ---
		api.POST("/auth/register", h.Register)
		api.POST("/auth/signin", h.SignIn)
		api.GET("/auth/me", requireAuth, h.Me)

		// --- Catalog (Public) ---
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories", h.GetAllCategories)
		api.GET("/brands", h.GetAllBrands)
		api.GET("/search", h.SearchProducts)

		// --- Recommendations (Public) ---
		recs := api.Group("/recommendations")
		{
			recs.GET("/similar", h.Similar)
			recs.GET("/frequently-bought-together", h.FrequentlyBoughtTogether)
			recs.GET("/personalized", middleware.OptionalAuth(opts.Tokens), h.Personalized)
		}

		// --- Checkout ---
		api.POST("/tax/calculate", h.CalculateTax)
		api.GET("/shipping/options", h.GetShippingOptions)
		api.POST("/orders", requireAuth, h.Checkout)
		api.GET("/orders", requireAuth, h.GetMyOrders)

		// --- Automation Hook ---
		api.POST("/zapier/webhook", h.ZapierWebhook)

		// --- Outreach (Admin-Only) ---
		outreach := api.Group("/outreach")
		outreach.Use(requireAuth)
		outreach.Use(middleware.AdminMiddleware(h.Customers, opts.Log))
		{
			outreach.GET("/campaigns", h.ListCampaigns)
			outreach.POST("/campaigns", h.CreateCampaign)
			outreach.GET("/campaigns/:id", h.GetCampaign)
			outreach.PUT("/campaigns/:id", h.UpdateCampaign)
			outreach.DELETE("/campaigns/:id", h.DeleteCampaign)
			outreach.POST("/campaigns/:id", h.CampaignAction)

			outreach.GET("/campaigns/:id/messages", h.ListMessages)
			outreach.POST("/campaigns/:id/messages", h.CreateMessage)
			outreach.PUT("/campaigns/:id/messages/:messageId", h.UpdateMessage)
			outreach.DELETE("/campaigns/:id/messages/:messageId", h.DeleteMessage)
			outreach.POST("/campaigns/:id/messages/:messageId/preview", h.PreviewMessage)

			outreach.GET("/campaigns/:id/recipients", h.ListRecipients)
			outreach.POST("/campaigns/:id/recipients", h.AddRecipients)
			outreach.DELETE("/campaigns/:id/recipients", h.RemoveRecipients)
		}
	}

	return router
}
