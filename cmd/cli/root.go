package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sharenotes/cmd/internal/client"
)

const (
	envServer = "SHARENOTES_SERVER"
	envToken  = "SHARENOTES_TOKEN"

	defaultServer = "http://localhost:7070"
)

var (
	serverURL string
	token     string
	timeout   time.Duration
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "sharenotes-cli",
	Short: "Browse, edit and share notes stored on a sharenotes server",
	Long: `sharenotes talks to the sharenotes API.
The server and the access token default to $SHARENOTES_SERVER and $SHARENOTES_TOKEN.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLevel(log.WARN)
		if verbose {
			log.SetLevel(log.DEBUG)
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr(envServer, defaultServer), "Base URL of the API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv(envToken), "Access token sent as Bearer authorization")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Timeout of each command's requests")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

func newClient() (*client.Client, error) {
	if token == "" {
		return nil, errors.Errorf("no access token, pass --token or set %s", envToken)
	}

	log.Debugf("using server %s", serverURL)
	return client.NewClient(serverURL, token), nil
}

// requestContext bounds one command's requests by --timeout.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid ID %q, IDs are positive integers", raw)
	}
	return id, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
