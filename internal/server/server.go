package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meddor/scribe/internal/config"
	"github.com/meddor/scribe/internal/credit"
	creditdomain "github.com/meddor/scribe/internal/credit/domain"
	"github.com/meddor/scribe/internal/generation"
	generationdomain "github.com/meddor/scribe/internal/generation/domain"
	obsmetrics "github.com/meddor/scribe/internal/observability/metrics"
	"github.com/meddor/scribe/internal/payment"
	paymentdomain "github.com/meddor/scribe/internal/payment/domain"
	"github.com/meddor/scribe/internal/prompt"
	promptdomain "github.com/meddor/scribe/internal/prompt/domain"
	llm "github.com/meddor/scribe/internal/providers/llm"
	"github.com/meddor/scribe/internal/ratelimit"
	"github.com/meddor/scribe/internal/usage"
	usagedomain "github.com/meddor/scribe/internal/usage/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	fx.Provide(registerGin),
	credit.Module,
	prompt.Module,
	usage.Module,
	llm.Module,
	ratelimit.Module,
	generation.Module,
	payment.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	return r
}

func registerGin(log *zap.Logger, metrics *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(log, metrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	creditSvc     creditdomain.Service
	generationSvc generationdomain.Service
	promptSvc     promptdomain.Service
	usageSvc      usagedomain.Service
	webhookSvc    paymentdomain.WebhookService
	checkout      paymentdomain.CheckoutClient
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	CreditSvc     creditdomain.Service
	GenerationSvc generationdomain.Service
	PromptSvc     promptdomain.Service
	UsageSvc      usagedomain.Service
	WebhookSvc    paymentdomain.WebhookService
	Checkout      paymentdomain.CheckoutClient `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		creditSvc:     p.CreditSvc,
		generationSvc: p.GenerationSvc,
		promptSvc:     p.PromptSvc,
		usageSvc:      p.UsageSvc,
		webhookSvc:    p.WebhookSvc,
		checkout:      p.Checkout,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.GET("/accounts/:email/credits", s.GetCreditBalance)
	v1.POST("/summaries", s.CreateSummary)
	v1.GET("/prompts/:email", s.GetPromptTemplate)
	v1.PUT("/prompts/:email", s.UpdatePromptTemplate)
	v1.GET("/usage", s.ListUsage)
	v1.POST("/checkout-sessions", s.CreateCheckoutSession)
	v1.POST("/payments/webhook/:provider", s.HandlePaymentWebhook)
}
