package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"example.com/timestats/internal/config"
	"example.com/timestats/internal/logging"
	"example.com/timestats/internal/publisher"
	"example.com/timestats/internal/stats"
)

// metricPublisher is the producer surface used by the commands.
type metricPublisher interface {
	PublishMetric(ctx context.Context, topic string, update stats.MetricUpdate) error
}

var rootCmd = &cobra.Command{
	Use:           "publisher",
	Short:         "publisher - emit metric updates for the timestats consumer",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var seedCmd = &cobra.Command{
	Use:   "seed [snapshot.json]",
	Short: "Publish every metric of a snapshot file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSeed,
}

var metricCmd = &cobra.Command{
	Use:   "metric",
	Short: "Publish a single metric update",
	RunE:  runMetric,
}

var (
	topicFlag     string
	titleFlag     string
	timeframeFlag string
	currentFlag   float64
	previousFlag  float64
	positionFlag  int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&topicFlag, "topic", "", "Destination topic (defaults to the first CONSUMER_TOPICS entry)")

	metricCmd.Flags().StringVar(&titleFlag, "title", "", "Activity title")
	metricCmd.Flags().StringVarP(&timeframeFlag, "timeframe", "t", string(stats.Weekly), "Timeframe (daily, weekly, monthly)")
	metricCmd.Flags().Float64Var(&currentFlag, "current", 0, "Current period hours")
	metricCmd.Flags().Float64Var(&previousFlag, "previous", 0, "Previous period hours")
	metricCmd.Flags().IntVar(&positionFlag, "position", -1, "Display position (negative keeps the stored one)")
	_ = metricCmd.MarkFlagRequired("title")

	rootCmd.AddCommand(seedCmd, metricCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func resolveTopic(cfg config.Config) (string, error) {
	if topicFlag != "" {
		return topicFlag, nil
	}
	if len(cfg.ConsumerTopics) == 0 {
		return "", errors.New("no topic configured")
	}
	return cfg.ConsumerTopics[0], nil
}

func withProducer(cmd *cobra.Command, fn func(ctx context.Context, pub metricPublisher, topic string, logger zerolog.Logger) error) error {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogPretty).With().Str("service", "timestats-publisher").Logger()
	topic, err := resolveTopic(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	producer := publisher.NewKafkaProducer(cfg.KafkaBrokers)
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing producer")
		}
	}()
	return fn(ctx, producer, topic, logger)
}

func runSeed(cmd *cobra.Command, args []string) error {
	path := "data.json"
	if len(args) == 1 {
		path = args[0]
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	return withProducer(cmd, func(ctx context.Context, pub metricPublisher, topic string, logger zerolog.Logger) error {
		n, err := seed(ctx, pub, topic, f)
		logger.Info().Str("topic", topic).Int("published", n).Msg("snapshot seeded")
		return err
	})
}

func seed(ctx context.Context, pub metricPublisher, topic string, r io.Reader) (int, error) {
	snap, err := stats.Decode(r)
	if err != nil {
		return 0, err
	}
	published := 0
	for _, update := range snap.Updates() {
		if err := pub.PublishMetric(ctx, topic, update); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

func runMetric(cmd *cobra.Command, args []string) error {
	update := stats.MetricUpdate{
		Title:     titleFlag,
		Timeframe: stats.Timeframe(timeframeFlag),
		Current:   currentFlag,
		Previous:  previousFlag,
	}
	if positionFlag >= 0 {
		position := positionFlag
		update.Position = &position
	}
	if err := update.Validate(); err != nil {
		return fmt.Errorf("invalid metric update: %w", err)
	}

	return withProducer(cmd, func(ctx context.Context, pub metricPublisher, topic string, logger zerolog.Logger) error {
		if err := pub.PublishMetric(ctx, topic, update); err != nil {
			return err
		}
		logger.Info().Str("topic", topic).Str("title", update.Title).Str("timeframe", string(update.Timeframe)).Msg("metric published")
		return nil
	})
}
