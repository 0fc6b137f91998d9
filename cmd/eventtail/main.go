// Command eventtail follows the game-event stream and prints each event
// as it arrives. Useful for watching a running server or replaying a topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/kafka"
)

type printHandler struct {
	logger *slog.Logger
}

func (p *printHandler) HandleEvent(ctx context.Context, event kafka.GameEvent) error {
	attrs := []any{
		"id", event.ID,
		"type", event.Type,
		"timestamp", event.Timestamp,
	}
	switch event.Type {
	case kafka.EventCreatureGenerated, kafka.EventCreatureSold:
		attrs = append(attrs, "creature_id", event.CreatureID, "rarity", event.Rarity, "score", event.Score)
		if event.Type == kafka.EventCreatureSold {
			attrs = append(attrs, "sale_value", event.SaleValue)
		}
	case kafka.EventScoreSaved:
		attrs = append(attrs, "nickname", event.Nickname, "score", event.Score)
	}
	if event.Tokens != 0 {
		attrs = append(attrs, "tokens", event.Tokens)
	}
	p.logger.Info("event", attrs...)
	return nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	brokers := flag.String("brokers", "", "Comma-separated Kafka brokers (overrides config)")
	topic := flag.String("topic", "", "Topic to follow (overrides config)")
	group := flag.String("group", "", "Consumer group ID (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if *brokers != "" {
		cfg.Kafka.Brokers = strings.Split(*brokers, ",")
	}
	if *topic != "" {
		cfg.Kafka.Topic = *topic
	}
	if *group != "" {
		cfg.Kafka.GroupID = *group
	}

	consumer, err := kafka.NewConsumer(&cfg.Kafka, &printHandler{logger: logger}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create consumer: %v\n", err)
		os.Exit(1)
	}

	if err := consumer.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start consumer: %v\n", err)
		os.Exit(1)
	}

	logger.Info("following event stream",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.GroupID,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := consumer.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop consumer: %v\n", err)
	}
}
