package main

import (
	"context"
	"os"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"botrelay/internal/ai"
	"botrelay/internal/chat"
	"botrelay/internal/config"
	"botrelay/internal/db"
	"botrelay/internal/http/handlers"
	appmw "botrelay/internal/http/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	setupLogging(cfg)

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect database")
	}

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		logrus.WithError(err).Fatal("failed to ensure bootstrap admin")
	}

	if cfg.GeminiAPIKey == "" {
		logrus.Warn("GEMINI_API_KEY is not set; chat messages will fail until it is configured")
	}
	gen, err := ai.NewGemini(context.Background(), ai.Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create Gemini client")
	}

	bots := db.NewBotStore(sqlDB)
	svc := chat.NewService(bots, gen, chat.Options{
		Instruction: cfg.PromptInstruction,
		Timeout:     cfg.AITimeout,
	})

	handlers.InitPrometheusMetrics()

	r := router.New()

	// Global middleware chain: request ID, then request logger, then router
	handler := appmw.RequestID(handlers.RequestLogger(r.Handler))

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	cors := appmw.CORS(cfg.CORSOrigins)
	r.GET("/chat/bot-details", cors(handlers.BotDetails(svc)))
	r.POST("/chat/message", cors(handlers.SendMessage(svc)))
	r.OPTIONS("/chat/bot-details", cors(preflightOnly))
	r.OPTIONS("/chat/message", cors(preflightOnly))

	admin := appmw.AdminAuth(sqlDB)
	r.GET("/metrics", admin(handlers.MetricsHandler()))
	r.GET("/admin/bots", admin(handlers.ListBots(bots)))
	r.POST("/admin/bots", admin(handlers.CreateBot(bots)))
	r.PUT("/admin/bots/{id}", admin(handlers.UpdateBot(bots)))
	r.GET("/admin/bots/{id}/metrics", admin(handlers.BotMetrics(bots)))
	r.POST("/admin/users", admin(handlers.CreateUser(sqlDB)))

	logrus.WithFields(logrus.Fields{
		"addr":  cfg.ListenAddr,
		"model": gen.Model(),
	}).Info("botrelay listening")
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
}

// preflightOnly handles OPTIONS requests that are not CORS preflights.
func preflightOnly(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func setupLogging(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
