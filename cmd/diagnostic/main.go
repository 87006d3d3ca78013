// Command diagnostic probes the upstream dependencies the server relies on.
//
//	go run ./cmd/diagnostic -check=all
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jacklvd/NEU-scheduler/internal/config"
	"github.com/jacklvd/NEU-scheduler/internal/services"
	"github.com/jacklvd/NEU-scheduler/internal/services/ai"
	"github.com/jacklvd/NEU-scheduler/internal/services/catalog"
	"github.com/jacklvd/NEU-scheduler/internal/services/email"
)

type check func(ctx context.Context, cfg *config.Config) (string, error)

var checks = map[string]check{
	"catalog":   checkCatalog,
	"llm":       checkLLM,
	"embedding": checkEmbedding,
	"redis":     checkRedis,
	"email":     checkEmail,
}

var checkOrder = []string{"catalog", "llm", "embedding", "redis", "email"}

func main() {
	which := flag.String("check", "all", "one of catalog, llm, embedding, redis, email, all")
	timeout := flag.Duration("timeout", 30*time.Second, "per-check timeout")
	flag.Parse()

	cfg := config.Load()

	names := checkOrder
	if *which != "all" {
		if _, ok := checks[*which]; !ok {
			fmt.Fprintf(os.Stderr, "unknown check %q (want %s or all)\n", *which, strings.Join(checkOrder, ", "))
			os.Exit(2)
		}
		names = []string{*which}
	}

	failed := 0
	for _, name := range names {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		start := time.Now()
		detail, err := checks[name](ctx, cfg)
		cancel()

		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			failed++
			fmt.Printf("FAIL %-9s %8s  %v\n", name, elapsed, err)
			continue
		}
		fmt.Printf("ok   %-9s %8s  %s\n", name, elapsed, detail)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func checkCatalog(ctx context.Context, cfg *config.Config) (string, error) {
	cc := services.CatalogConfigFromApp(cfg)
	if err := cc.Validate(); err != nil {
		return "", err
	}
	client := catalog.NewBannerClient(cc)

	terms, err := client.GetTerms(ctx, 1, 1, "")
	if err != nil {
		return "", err
	}
	if len(terms) == 0 {
		return "", fmt.Errorf("no terms returned")
	}
	res, err := client.SearchSections(ctx, catalog.SearchQuery{Term: terms[0].ID, Subject: "CS", PageSize: 1})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("latest term %s (%s), %d CS sections", terms[0].ID, terms[0].Name, res.TotalCount), nil
}

func aiProvider(cfg *config.Config) (*ai.OpenAIProvider, *ai.Config, error) {
	ac := services.AIConfigFromApp(cfg)
	if err := ac.Validate(); err != nil {
		return nil, nil, err
	}
	return ai.NewOpenAIProvider(ac), ac, nil
}

func checkLLM(ctx context.Context, cfg *config.Config) (string, error) {
	provider, ac, err := aiProvider(cfg)
	if err != nil {
		return "", err
	}
	reply, err := provider.Complete(ctx, ai.CompletionRequest{
		Model:     ac.Model,
		Prompt:    "Reply with the single word: ready",
		MaxTokens: 5,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s replied %q", ac.Model, strings.TrimSpace(reply)), nil
}

func checkEmbedding(ctx context.Context, cfg *config.Config) (string, error) {
	provider, ac, err := aiProvider(cfg)
	if err != nil {
		return "", err
	}
	vectors, err := provider.CreateEmbeddings(ctx, []string{"machine learning"})
	if err != nil {
		return "", err
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("expected 1 vector, got %d", len(vectors))
	}
	return fmt.Sprintf("%s returned %d dimensions", ac.EmbeddingModel, len(vectors[0])), nil
}

func checkRedis(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.RedisURL == "" {
		return "REDIS_URL not set, skipped", nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return "", err
	}
	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return "", err
	}
	return "PONG from " + opts.Addr, nil
}

func checkEmail(ctx context.Context, cfg *config.Config) (string, error) {
	ec := services.EmailConfigFromApp(cfg)
	provider, err := services.NewEmailProvider(ec, services.NewLogger("diagnostic"))
	if err != nil {
		return "", err
	}
	if err := provider.HealthCheck(ctx); err != nil {
		return "", err
	}

	to := os.Getenv("DIAGNOSTIC_EMAIL_TO")
	if to == "" {
		return provider.Name() + " reachable (set DIAGNOSTIC_EMAIL_TO to send a test message)", nil
	}
	msg, err := email.VerificationMessage(to, "000000", false, cfg.OTPTTL)
	if err != nil {
		return "", err
	}
	if err := provider.Send(ctx, msg); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s sent a test message to %s", provider.Name(), services.MaskEmail(to)), nil
}
