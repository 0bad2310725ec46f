package main

import (
	"context"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/imdb-bot/internal/bot"
	"github.com/example/imdb-bot/internal/omdb"
	"github.com/example/imdb-bot/internal/platform/config"
	"github.com/example/imdb-bot/internal/platform/db"
	"github.com/example/imdb-bot/internal/platform/events"
	"github.com/example/imdb-bot/internal/platform/httpserver"
	"github.com/example/imdb-bot/internal/platform/logging"
	"github.com/example/imdb-bot/internal/platform/natsconn"
	"github.com/example/imdb-bot/internal/platform/run"
	"github.com/example/imdb-bot/internal/stats"
	"github.com/example/imdb-bot/internal/store"
)

func main() {
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Error("database connect", zap.Error(err))
		run.Exit(1)
	}
	if err := db.ValidateSchema(ctx, pool); err != nil {
		cancel()
		log.Error("schema validation", zap.Error(err))
		run.Exit(1)
	}
	cancel()
	defer pool.Close()

	ratings := store.NewPostgresRatingStore(pool)
	movies := store.NewPostgresMovieStore(pool)
	settings := store.NewPostgresSettingsStore(pool)

	var cache stats.Cache
	if cfg.RedisURL != "" {
		rc, err := stats.NewRedisCache(cfg.RedisURL, cfg.StatsCacheTTL)
		if err != nil {
			log.Error("redis connect", zap.Error(err))
			run.Exit(1)
		}
		cache = rc
	} else {
		cache = stats.NewTTLCache(cfg.StatsCacheTTL)
	}
	agg := stats.NewAggregator(ratings, cache)

	// Event publishing is optional; the bot runs fine without NATS.
	var pub *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL})
		if err != nil {
			log.Warn("nats connect", zap.Error(err))
		} else {
			defer nc.Close()
			js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
			if err != nil {
				log.Warn("jetstream init", zap.Error(err))
			} else {
				pub = events.New(js, log)
			}
		}
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Error("discord session", zap.Error(err))
		run.Exit(1)
	}
	session.Identify.Intents = bot.Intents()

	gw := bot.NewDiscordGateway(log, session)
	router := bot.NewRouter(log, gw, movies, ratings, agg, pub, cfg.EventTimeout)
	lookup := omdb.New(cfg.OMDBBaseURL, cfg.OMDBAPIKey)
	detector := bot.NewDetector(log, gw, movies, settings, lookup, pub, cfg.EventTimeout)
	commands := bot.NewCommands(log, settings, movies, ratings, cfg.EventTimeout)
	bot.Wire(session, log, detector, router, commands, cfg.EventTimeout)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(ctx)
		},
		MetricsFunc: func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			guilds, err := settings.Count(ctx)
			if err != nil {
				return nil, err
			}
			tracked, err := movies.Count(ctx)
			if err != nil {
				return nil, err
			}
			votes, err := ratings.Count(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int64{
				"guilds_configured": guilds,
				"movies_tracked":    tracked,
				"ratings_total":     votes,
			}, nil
		},
	})
	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTPAddr, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if err := session.Open(); err != nil {
			return err
		}
		log.Info("discord gateway connected")

		go func() {
			<-ctx.Done()
			if err := session.Close(); err != nil {
				log.Warn("discord close", zap.Error(err))
			}
			router.Wait()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
