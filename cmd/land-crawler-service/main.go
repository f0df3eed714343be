package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"land-crawler-service/internal"
	"land-crawler-service/internal/core/domain"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "land-crawler-service",
	Short:         "Обход карты объявлений о недвижимости по сетке секторов",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Слушать очередь задач на обход до SIGINT/SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := internal.NewApp(true, envPaths()...)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return application.Run()
	},
}

var (
	crawlMode string
	crawlBBox string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Выполнить один обход и напечатать итог в JSON",
	Example: `  land-crawler-service crawl --mode single
  land-crawler-service crawl --mode grid --bbox 37.45,126.80,37.70,127.20`,
	RunE: runCrawl,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "путь к .env (по умолчанию ./.env)")

	crawlCmd.Flags().StringVar(&crawlMode, "mode", string(domain.CrawlModeSingle), "режим обхода: single или grid")
	crawlCmd.Flags().StringVar(&crawlBBox, "bbox", "", "прямоугольник minLat,minLon,maxLat,maxLon")

	rootCmd.AddCommand(serveCmd, crawlCmd)
}

func envPaths() []string {
	if envFile == "" {
		return nil
	}
	return []string{envFile}
}

// parseCrawlRequest проверяет флаги до создания приложения
func parseCrawlRequest(mode, bbox string) (domain.CrawlRequest, error) {
	m, err := domain.ParseCrawlMode(mode)
	if err != nil {
		return domain.CrawlRequest{}, err
	}
	req := domain.CrawlRequest{Mode: m}
	if bbox != "" {
		box, err := domain.ParseBoundingBox(bbox)
		if err != nil {
			return domain.CrawlRequest{}, err
		}
		req.Box = &box
	}
	return req, nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	req, err := parseCrawlRequest(crawlMode, crawlBBox)
	if err != nil {
		return err
	}

	application, err := internal.NewApp(false, envPaths()...)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, runErr := application.Crawl(ctx, req)
	if outcome != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return fmt.Errorf("failed to encode outcome: %w", err)
		}
	}
	return runErr
}

// exitCode: 2 - некорректный ввод, 130 - прерван сигналом
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidBoundingBox),
		errors.Is(err, domain.ErrInvalidGrid),
		errors.Is(err, domain.ErrUnknownCrawlMode):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
