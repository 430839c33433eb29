package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/scan-atlas/pkg/server"
	"github.com/de-tools/scan-atlas/pkg/services/report"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var reportDir string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve scan reports over HTTP",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&reportDir, "reports", "r", "codescan_report",
		"Directory containing scan reports")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if _, err := os.Stat(reportDir); err != nil {
		return fmt.Errorf("report directory %q not found: %w", reportDir, err)
	}
	logger.Info().Msgf("serving reports from `%s`", reportDir)

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "8080"
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Reports: report.NewExplorer(reportDir),
		},
	})

	return api.Start()
}
