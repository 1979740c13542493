package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/algorecall/internal/ai"
	"github.com/example/algorecall/internal/bot"
	"github.com/example/algorecall/internal/config"
	"github.com/example/algorecall/internal/database"
	"github.com/example/algorecall/internal/tracker"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireBotToken(); err != nil {
		log.Fatal(err)
	}

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	tr := tracker.New(database.DB, tracker.WithLocation(cfg.Location))

	var opts []bot.Option
	hints, err := ai.New(cfg.OpenAIKey, cfg.OpenAIModel)
	switch {
	case errors.Is(err, ai.ErrDisabled):
		log.Println("OPENAI_API_KEY not set, hints are disabled")
	case err != nil:
		log.Fatalf("Failed to create hint client: %v", err)
	default:
		opts = append(opts, bot.WithHints(hints))
	}

	b, err := bot.New(cfg, database.DB, tr, opts...)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Bot error: %v", err)
		}
	}()
	log.Println("Bot started. Press Ctrl+C to stop.")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case <-done:
	}
	cancel()
	b.Stop()
	<-done
	log.Println("Bot stopped successfully")
}
