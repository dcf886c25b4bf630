package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accessdomain "github.com/tsfshop/storefront/internal/access/domain"
	catalogdomain "github.com/tsfshop/storefront/internal/catalog/domain"
	checkoutdomain "github.com/tsfshop/storefront/internal/checkout/domain"
	"github.com/tsfshop/storefront/internal/config"
	fulfillmentdomain "github.com/tsfshop/storefront/internal/fulfillment/domain"
	"github.com/tsfshop/storefront/internal/observability"
	obsmiddleware "github.com/tsfshop/storefront/internal/observability/logger"
	obsmetrics "github.com/tsfshop/storefront/internal/observability/metrics"
	obstracing "github.com/tsfshop/storefront/internal/observability/tracing"
	"github.com/tsfshop/storefront/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(CORS())
	r.Use(ErrorHandlingMiddleware())

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorPayload{Error: "method_not_allowed"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorPayload{Error: "not_found"})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("http.server")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	catalogSvc  catalogdomain.Service
	adminAuth   catalogdomain.Authorizer
	checkoutSvc checkoutdomain.Service
	fulfillment fulfillmentdomain.Service
	accessSvc   accessdomain.Service
	limiter     *ratelimit.Limiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Catalog     catalogdomain.Service
	AdminAuth   catalogdomain.Authorizer
	Checkout    checkoutdomain.Service
	Fulfillment fulfillmentdomain.Service
	Access      accessdomain.Service
	Limiter     *ratelimit.Limiter  `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		catalogSvc:  p.Catalog,
		adminAuth:   p.AdminAuth,
		checkoutSvc: p.Checkout,
		fulfillment: p.Fulfillment,
		accessSvc:   p.Access,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}

	svc.RegisterRoutes()
	return svc
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	api.GET("/products", s.ListProducts)

	admin := api.Group("/admin-products", s.AdminRequired())
	{
		admin.GET("", s.AdminListProducts)
		admin.POST("", s.AdminCreateProduct)
		admin.PUT("", s.AdminUpdateProduct)
		admin.DELETE("", s.AdminDeleteProduct)
	}

	api.POST("/create-checkout", s.RateLimit("create-checkout"), s.CreateCheckout)
	api.POST("/create-stripe-checkout", s.RateLimit("create-checkout"), s.CreateCheckout)
	api.POST("/create-mp-preference", s.RateLimit("create-mp-preference"), s.CreateMercadoPagoPreference)
	api.POST("/checkout-success", s.RateLimit("checkout-success"), s.CheckoutSuccess)
	api.POST("/email-send", s.AdminRequired(), s.SendProductEmail)
	api.POST("/webhook", s.StripeWebhook)
	api.POST("/stripe-webhook", s.StripeWebhook)

	api.GET("/access", s.GetAccess)
	api.GET("/access/receipt", s.GetAccessReceipt)
}
