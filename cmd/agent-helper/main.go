package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikeboe/agent-helper/pkg/clients"
	"github.com/mikeboe/agent-helper/pkg/config"
	"github.com/mikeboe/agent-helper/pkg/report"
	"github.com/mikeboe/agent-helper/pkg/routemap"
	"github.com/mikeboe/agent-helper/pkg/trip"
)

var (
	query            string
	count            int
	window           string
	outPath          string
	question         string
	wheelchair       bool
	visuallyImpaired bool
	geojsonPath      string
)

func main() {
	// Setup structured logging
	handler := slog.NewTextHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(handler))
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "agent-helper",
		Short: "News reports and trip planning from the terminal",
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Write a news report about a company",
		Long:  `Searches recent news, keeps the articles that are actually about the company, scores their sentiment and writes a Markdown report with a header image.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("query") {
				query = prompt("Enter company name: ")
			}
			query = strings.TrimSpace(query)
			if query == "" {
				return errors.New("query cannot be empty")
			}
			return runReport(cmd.Context(), cfg)
		},
	}
	reportCmd.Flags().StringVarP(&query, "query", "q", "", "Company or topic to report on")
	reportCmd.Flags().IntVarP(&count, "count", "n", cfg.DesiredCount, "Number of relevant articles to include")
	reportCmd.Flags().StringVarP(&window, "window", "w", cfg.Window, "Recency window: day, week, month or year")
	reportCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the report to this Markdown file and the header image next to it")

	tripCmd := &cobra.Command{
		Use:   "trip",
		Short: "Plan a public transport trip in Norway",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("question") {
				question = prompt("Where do you want to go? ")
			}
			question = strings.TrimSpace(question)
			if question == "" {
				return errors.New("question cannot be empty")
			}
			return runTrip(cmd.Context(), cfg)
		},
	}
	tripCmd.Flags().StringVar(&question, "question", "", "Travel question, e.g. 'From Oslo S to Majorstuen'")
	tripCmd.Flags().BoolVar(&wheelchair, "wheelchair", false, "Plan for a wheelchair user")
	tripCmd.Flags().BoolVar(&visuallyImpaired, "visually-impaired", false, "Plan for a visually impaired traveller")
	tripCmd.Flags().StringVar(&geojsonPath, "geojson", "", "Write the map layers as GeoJSON to this path")

	rootCmd.AddCommand(reportCmd, tripCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func prompt(label string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(label)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func runReport(ctx context.Context, cfg *config.Config) error {
	pipeline, err := clients.ReportPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	pipeline.Notify = func(message string) { fmt.Fprintln(os.Stderr, message) }

	res := pipeline.Run(ctx, query, count, report.ParseWindow(window, report.WindowWeek))

	if outPath == "" {
		fmt.Println(res.Report)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(res.Report), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	slog.Info("Report written", "path", outPath, "sources", len(res.Sources))

	if res.HeaderImage == "" {
		return nil
	}
	img, err := base64.StdEncoding.DecodeString(res.HeaderImage)
	if err != nil {
		return fmt.Errorf("failed to decode header image: %w", err)
	}
	imgPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".png"
	if err := os.WriteFile(imgPath, img, 0o644); err != nil {
		return fmt.Errorf("failed to write header image: %w", err)
	}
	slog.Info("Header image written", "path", imgPath, "prompt", res.ImagePrompt)
	return nil
}

func runTrip(ctx context.Context, cfg *config.Config) error {
	graph, closeGraph, err := clients.TripGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGraph()

	state, err := graph.Run(ctx, trip.WithAccessibility(question, wheelchair, visuallyImpaired))
	if err != nil {
		return fmt.Errorf("Trip planning failed: %w", err)
	}
	fmt.Println(trip.Summary(state))

	if geojsonPath == "" || !state.Planned() {
		return nil
	}
	layers, err := clients.RouteAssembler(cfg).Assemble(ctx, state.Trip, routemap.Preferences{
		Wheelchair:       wheelchair,
		VisuallyImpaired: visuallyImpaired,
	})
	if err != nil {
		return err
	}
	data, err := layers.Features.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode map layers: %w", err)
	}
	if err := os.WriteFile(geojsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write map layers: %w", err)
	}
	slog.Info("Map layers written", "path", geojsonPath, "features", len(layers.Features.Features))
	return nil
}
