// Package api exposes the scoreboard and festival services over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"astrascore/internal/festival"
	"astrascore/internal/metrics"
	"astrascore/internal/scoreboard"
)

type Deps struct {
	Events    *scoreboard.Service
	Festivals *festival.Service
	// Timers is optional; without it clocks only move through the tick route.
	Timers      *scoreboard.TimerScheduler
	Idempotency *IdempotencyCache
	Limiter     *IPRateLimiter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Idempotency == nil {
		d.Idempotency = NewIdempotencyCache(0)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Logger))
	if d.Metrics != nil {
		r.Use(Instrument(d.Metrics))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	api := r.Group("/api")
	if d.Limiter != nil {
		api.Use(RateLimit(d.Limiter))
	}
	{
		api.GET("/categories", Categories())

		api.GET("/events", ListEvents(d.Events))
		api.POST("/events", CreateEvent(d.Events))
		api.GET("/events/:id", GetEvent(d.Events))
		api.GET("/events/:id/board", GetBoard(d.Events))
		api.POST("/events/:id/score", ApplyScore(d.Events, d.Idempotency))
		api.POST("/events/:id/timer/toggle", ToggleTimer(d.Events, d.Timers))
		api.POST("/events/:id/timer/tick", TickTimer(d.Events))
		api.POST("/events/:id/timer/reset", ResetTimer(d.Events, d.Timers))
		api.POST("/events/:id/period", SetPeriod(d.Events))
		api.POST("/events/:id/status", SetStatus(d.Events))
		api.POST("/events/:id/logs", AppendLog(d.Events))

		api.GET("/festivals", ListFestivals(d.Festivals))
		api.POST("/festivals", SaveFestival(d.Festivals))
		api.GET("/festivals/:id", GetFestival(d.Festivals))
		api.GET("/festivals/:id/stats", FestivalStats(d.Festivals))
		api.GET("/festivals/:id/standings", FestivalStandings(d.Festivals))
		api.POST("/festivals/:id/reconcile", ReconcileFestival(d.Festivals))
	}
	return r
}
