package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront-backend/internal/background"
	"storefront-backend/internal/config"
	"storefront-backend/internal/handlers"
	"storefront-backend/internal/middleware"
	"storefront-backend/internal/models"
	"storefront-backend/internal/payments"
	"storefront-backend/internal/payments/demo"
	"storefront-backend/internal/payments/stripe"
	"storefront-backend/internal/repository"
	"storefront-backend/internal/service"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"
)

type Application struct {
	cfg *config.Config

	cache       *cache.Cache
	catalog     repository.ProductRepository
	rateLimiter *middleware.RateLimitManager
	scheduler   *background.Scheduler

	services serviceContainer
	handlers handlerContainer

	router *gin.Engine
	server *http.Server
}

type serviceContainer struct {
	Catalog  *service.CatalogService
	Checkout *service.CheckoutService
}

type handlerContainer struct {
	Product  *handlers.ProductHandler
	Checkout *handlers.CheckoutHandler
	Demo     *handlers.DemoHandler
	Webhook  *handlers.WebhookHandler
}

func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &Application{cfg: cfg}

	if err := app.initCache(); err != nil {
		return nil, err
	}

	if err := app.initCatalog(); err != nil {
		app.closeCache()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeCache()
		return nil, err
	}

	app.initHandlers()

	if err := app.initBackground(); err != nil {
		app.closeCache()
		return nil, err
	}

	app.initRouter()

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":          a.cfg.Port,
		"environment":   a.cfg.Environment,
		"checkout_mode": a.services.Checkout.Mode(),
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(ctx); err != nil {
			logger.Error(err, "Background jobs did not stop in time", nil)
		}
	}

	if a.rateLimiter != nil {
		a.rateLimiter.Shutdown()
	}

	a.closeCache()
	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

// CheckoutService exposes the orchestrator, mainly for tests.
func (a *Application) CheckoutService() *service.CheckoutService {
	return a.services.Checkout
}

func (a *Application) closeCache() {
	if err := a.cache.Close(); err != nil {
		logger.Error(err, "Failed to close cache connection", nil)
	}
}

func (a *Application) initCache() error {
	c, err := cache.NewCache(a.cfg.RedisURL, a.cfg.EnableRedis)
	if err != nil {
		return err
	}
	a.cache = c

	if c.Enabled() {
		logger.Info("Connected to Redis", map[string]interface{}{"addr": a.cfg.RedisURL})
	}
	return nil
}

func (a *Application) initCatalog() error {
	products := repository.DefaultProducts()
	if a.cfg.CatalogFile != "" {
		loaded, err := repository.LoadProductsFile(a.cfg.CatalogFile)
		if err != nil {
			return err
		}
		products = loaded
	}

	catalog, err := repository.NewProductRepository(products)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}
	a.catalog = catalog

	logger.Info("Catalog loaded", map[string]interface{}{
		"products": len(products),
		"source":   catalogSource(a.cfg.CatalogFile),
	})
	return nil
}

func catalogSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

func (a *Application) initServices() error {
	var (
		live         payments.Provider
		demoProvider service.DemoProvider
	)

	if a.cfg.DemoMode() {
		store, err := a.demoStore()
		if err != nil {
			return err
		}
		demoProvider = demo.NewProvider(store, demo.Config{
			CheckoutURL:     a.cfg.DemoCheckoutURL(),
			Retention:       a.cfg.DemoSessionRetention,
			ProcessingDelay: a.cfg.DemoPaymentDelay,
		})
		logger.Warn("Stripe is not configured, running checkout in demo mode", map[string]interface{}{
			"retention": a.cfg.DemoSessionRetention.String(),
		})
	} else {
		provider, err := stripe.NewProvider(a.cfg.StripeSecretKey)
		if err != nil {
			return fmt.Errorf("failed to configure stripe: %w", err)
		}
		live = provider
	}

	catalogService := service.NewCatalogService(a.catalog)
	a.services = serviceContainer{
		Catalog: catalogService,
		Checkout: service.NewCheckoutService(a.catalog, live, demoProvider, service.CheckoutConfig{
			SuccessURL: a.cfg.SuccessURL(),
			CancelURL:  a.cfg.CancelURL(),
			Currency:   a.cfg.CheckoutCurrency,
		}),
	}
	return nil
}

func (a *Application) demoStore() (demo.Store, error) {
	if !a.cache.Enabled() {
		return demo.NewMemoryStore(), nil
	}
	store, err := demo.NewRedisStore(a.cache, a.cfg.DemoSessionRetention)
	if err != nil {
		return nil, fmt.Errorf("failed to create demo session store: %w", err)
	}
	logger.Info("Demo sessions are stored in Redis", nil)
	return store, nil
}

func (a *Application) initHandlers() {
	a.handlers = handlerContainer{
		Product:  handlers.NewProductHandler(a.services.Catalog),
		Checkout: handlers.NewCheckoutHandler(a.services.Checkout),
		Demo:     handlers.NewDemoHandler(a.services.Checkout),
		Webhook:  handlers.NewWebhookHandler(a.cfg.StripeWebhookSecret),
	}
}

func (a *Application) initBackground() error {
	a.scheduler = background.NewScheduler(background.SchedulerConfig{WorkerCount: 1, QueueSize: 4})
	a.scheduler.Start(context.Background())

	if a.services.Checkout.Mode() != models.CheckoutModeDemo {
		return nil
	}

	janitor := background.NewJanitor(a.services.Checkout, a.cfg.DemoCleanupInterval)
	if err := janitor.Register(a.scheduler); err != nil {
		_ = a.scheduler.Shutdown(context.Background())
		return fmt.Errorf("failed to start demo session janitor: %w", err)
	}
	return nil
}

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a.rateLimiter = middleware.NewRateLimitManager(
		context.Background(),
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		a.cfg.RateLimitBurst,
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  a.cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.RateLimitMiddleware(a.rateLimiter))
	router.Use(middleware.SecurityHeadersMiddleware())

	router.GET("/health", handlers.Health(a.services.Checkout))
	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/products", a.handlers.Product.GetAll)
		api.GET("/products/:id", a.handlers.Product.GetByID)

		api.POST("/create-checkout-session", a.handlers.Checkout.CreateSession)
		api.GET("/checkout-session/:sessionId", a.handlers.Checkout.GetSession)

		api.GET("/demo-session/:sessionId", a.handlers.Demo.GetSession)
		api.POST("/demo-complete/:sessionId", a.handlers.Demo.Complete)

		api.POST("/webhooks/stripe", a.handlers.Webhook.HandleStripe)
	}

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Route not found",
				"path":  path,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	a.router = router
}
