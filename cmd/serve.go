package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	genkitapi "github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/getdukka/chatseller-api-sub001/db"
	"github.com/getdukka/chatseller-api-sub001/internal/api"
	"github.com/getdukka/chatseller-api-sub001/internal/catalog"
	"github.com/getdukka/chatseller-api-sub001/internal/config"
	"github.com/getdukka/chatseller-api-sub001/internal/convo"
	"github.com/getdukka/chatseller-api-sub001/internal/engine"
	"github.com/getdukka/chatseller-api-sub001/internal/knowledge"
	"github.com/getdukka/chatseller-api-sub001/internal/log"
	"github.com/getdukka/chatseller-api-sub001/internal/observability"
	"github.com/getdukka/chatseller-api-sub001/internal/order"
	"github.com/getdukka/chatseller-api-sub001/internal/provider"
	"github.com/getdukka/chatseller-api-sub001/internal/shop"
)

// providerRatePerSecond bounds completion calls across all tenants.
const providerRatePerSecond = 10

// runServe wires the full engine and serves HTTP until interrupted.
func runServe(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			AgentHost:   cfg.Tracing.AgentHost,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		}, logger)
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("trace flush failed", "error", err)
			}
		}()
	}

	if err := db.Migrate(cfg.ConnString(), logger); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return fmt.Errorf("creating connection pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	// Plugins read GEMINI_API_KEY / OPENAI_API_KEY from the environment.
	plugins := []genkitapi.Plugin{&googlegenai.GoogleAI{}}
	secondaryEnabled := os.Getenv("OPENAI_API_KEY") != ""
	if secondaryEnabled {
		plugins = append(plugins, &openai.OpenAI{})
	} else {
		logger.Warn("OPENAI_API_KEY not set, provider fallback disabled")
	}
	g := genkit.Init(ctx, genkit.WithPlugins(plugins...))

	tools := provider.DefineTools(g)
	completers := []provider.Completer{
		provider.NewGenkitCompleter(g, "primary", cfg.PrimaryModel, cfg.MaxTokens, tools, logger),
	}
	if secondaryEnabled {
		completers = append(completers,
			provider.NewGenkitCompleter(g, "secondary", cfg.SecondaryModel, cfg.MaxTokens, nil, logger))
	}
	chain := provider.NewChain(logger, completers,
		provider.WithLimiter(rate.NewLimiter(rate.Limit(providerRatePerSecond), providerRatePerSecond)),
		provider.WithTimeout(time.Duration(cfg.ProviderTimeoutSeconds)*time.Second))

	eng := engine.New(engine.Config{
		Shops:       shop.NewStore(pool, logger),
		Convos:      convo.NewStore(pool, logger),
		Items:       catalog.NewStore(pool, logger),
		Docs:        knowledge.NewStore(pool, logger),
		Orders:      order.NewStore(pool, logger),
		States:      order.NewPGStateStore(pool),
		Retriever:   knowledge.NewRetriever(nil),
		Completer:   chain,
		Temperature: float64(cfg.Temperature),
		HistoryCap:  cfg.MaxHistoryMessages,
		Logger:      logger,
	})

	server := api.NewServer(api.NewChatHandler(eng, logger), logger)
	return server.Run(ctx, cfg.ListenAddr)
}
