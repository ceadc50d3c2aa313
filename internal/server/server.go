package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/profitlens/internal/analytics"
	analyticsservice "github.com/smallbiznis/profitlens/internal/analytics/service"
	"github.com/smallbiznis/profitlens/internal/config"
	"github.com/smallbiznis/profitlens/internal/ingest"
	"github.com/smallbiznis/profitlens/internal/ledger"
	ledgerdomain "github.com/smallbiznis/profitlens/internal/ledger/domain"
	"github.com/smallbiznis/profitlens/internal/observability"
	obsmiddleware "github.com/smallbiznis/profitlens/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/profitlens/internal/observability/metrics"
	obstracing "github.com/smallbiznis/profitlens/internal/observability/tracing"
	"github.com/smallbiznis/profitlens/internal/ratelimit"
	"github.com/smallbiznis/profitlens/internal/report"
	"github.com/smallbiznis/profitlens/internal/source"
	sourcedomain "github.com/smallbiznis/profitlens/internal/source/domain"
	"github.com/smallbiznis/profitlens/internal/verification"
	verificationdomain "github.com/smallbiznis/profitlens/internal/verification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	source.Module,
	ledger.Module,
	analytics.Module,
	verification.Module,
	ratelimit.Module,
	ingest.Module,
	report.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, metrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(RequestMetrics(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, metrics *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(obsCfg, metrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
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
	engine    *gin.Engine
	log       *zap.Logger
	sources   sourcedomain.Service
	ledger    ledgerdomain.Service
	analytics *analyticsservice.Engine
	verifier  verificationdomain.Service
	syncer    *ingest.Syncer
	reports   *report.Service
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Log       *zap.Logger
	Sources   sourcedomain.Service
	Ledger    ledgerdomain.Service
	Analytics *analyticsservice.Engine
	Verifier  verificationdomain.Service
	Syncer    *ingest.Syncer  `optional:"true"`
	Reports   *report.Service `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		log:       p.Log.Named("server"),
		sources:   p.Sources,
		ledger:    p.Ledger,
		analytics: p.Analytics,
		verifier:  p.Verifier,
		syncer:    p.Syncer,
		reports:   p.Reports,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Sources --------
	api.GET("/sources", s.ListSources)
	api.POST("/sources", s.ConnectSource)
	api.DELETE("/sources/:id", s.DisconnectSource)
	api.PUT("/sources/:id/records", s.ReplaceRecords)
	api.POST("/sources/:id/records", s.AppendRecords)
	api.POST("/sources/:id/sync", s.SyncSource)
	api.POST("/sources/:id/links/:adId", s.LinkSource)
	api.DELETE("/sources/:id/links/:adId", s.UnlinkSource)

	// -------- View --------
	api.PUT("/view", s.SetView)
	api.GET("/records", s.ListActiveRecords)

	// -------- Analytics --------
	api.GET("/snapshot", s.GetSnapshot)
	api.GET("/metrics/business", s.GetBusinessMetrics)
	api.GET("/periods", s.ListPeriods)
	api.GET("/products", s.ListProducts)
	api.GET("/cities", s.ListCities)
	api.GET("/couriers", s.ListCouriers)
	api.PUT("/settings/ops-percent", s.SetOpsPercent)
	api.GET("/report.pdf", s.RenderReport)

	// -------- Ledger --------
	api.GET("/ledger", s.ListLedgerEntries)
	api.POST("/ledger", s.CreateLedgerEntry)
	api.DELETE("/ledger/:id", s.DeleteLedgerEntry)
	api.GET("/ad-spend", s.ListAdSpend)
	api.POST("/ad-spend", s.CreateAdSpend)
	api.DELETE("/ad-spend/:id", s.DeleteAdSpend)

	// -------- Verification --------
	api.POST("/orders/:id/verify", s.VerifyOrder)
}
