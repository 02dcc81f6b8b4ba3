// Command vocabuddy-server runs the VocaBuddy backend: word
// recommendations over precomputed embeddings, difficulty classification,
// and the conversational tutoring agent.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scrypster/vocabuddy/internal/agent"
	"github.com/scrypster/vocabuddy/internal/config"
	"github.com/scrypster/vocabuddy/internal/difficulty"
	"github.com/scrypster/vocabuddy/internal/llm"
	"github.com/scrypster/vocabuddy/internal/recommend"
	"github.com/scrypster/vocabuddy/internal/server"
	"github.com/scrypster/vocabuddy/internal/session"
	"github.com/scrypster/vocabuddy/internal/topic"
	"github.com/scrypster/vocabuddy/internal/vocab"
	vocabpg "github.com/scrypster/vocabuddy/internal/vocab/postgres"
	vocabsqlite "github.com/scrypster/vocabuddy/internal/vocab/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run() error {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Everything loaded below is fatal on failure: the process must not
	// serve traffic with a partial core.
	source, cleanup, err := buildVocabSource(cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	store, err := vocab.Load(ctx, source)
	if err != nil {
		return err
	}
	log.Printf("vocabulary loaded: %d words, dimension %d", store.Len(), store.Dimension())

	index := recommend.NewIndex(store)

	model, err := difficulty.LoadModel(cfg.Difficulty.ModelPath)
	if err != nil {
		return err
	}
	freq := difficulty.NewFrequencyTable(nil)
	if cfg.Difficulty.FrequencyPath != "" {
		freq, err = difficulty.LoadFrequencyTable(cfg.Difficulty.FrequencyPath)
		if err != nil {
			return err
		}
		log.Printf("frequency table loaded: %d entries", freq.Len())
	}
	classifier, err := difficulty.NewClassifier(model, freq, cfg.Difficulty.CacheSize)
	if err != nil {
		return err
	}

	topics := topic.NewNormalizer()
	if cfg.Vocab.TopicsPath != "" {
		topics, err = topic.LoadNormalizer(cfg.Vocab.TopicsPath)
		if err != nil {
			return err
		}
	}

	sessions := session.NewStore()

	client := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		BaseURL:       cfg.LLM.BaseURL,
		Timeout:       cfg.LLM.RequestTimeout,
		MaxToolRounds: cfg.LLM.MaxToolRounds,
	})

	orchestrator := agent.New(client, index, store, classifier, topics, sessions, agent.Config{
		Timeout:      cfg.Agent.TurnTimeout,
		HistoryLimit: cfg.Agent.HistoryLimit,
	})

	addr, _, err := server.Start(ctx, cfg, server.Deps{
		Orchestrator: orchestrator,
		Index:        index,
		Topics:       topics,
		Sessions:     sessions,
	})
	if err != nil {
		return err
	}
	log.Printf("VocaBuddy API listening on http://%s", addr)

	<-ctx.Done()
	log.Println("shutting down")
	return nil
}

// buildVocabSource selects the vocabulary source from configuration.
func buildVocabSource(cfg *config.Config) (vocab.Source, func(), error) {
	switch cfg.Vocab.Source {
	case "npy", "":
		return vocab.FileSource{
			EmbeddingsPath: cfg.Vocab.EmbeddingsPath,
			WordsPath:      cfg.Vocab.WordsPath,
		}, nil, nil
	case "sqlite":
		src, err := vocabsqlite.NewSource(cfg.Vocab.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	case "postgres":
		src, err := vocabpg.NewSource(cfg.Vocab.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown vocab source %q (want npy, sqlite, or postgres)", cfg.Vocab.Source)
	}
}
