package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckCmd = &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.

Exit codes:
  0 - Server is healthy
  1 - Server is unhealthy or unreachable
  2 - Invalid response from server`,
		RunE: runHealthcheck,
	}

	healthcheckTimeout int
	healthcheckURL     string
)

func init() {
	healthcheckCmd.Flags().IntVar(&healthcheckTimeout, "timeout", 5, "timeout in seconds")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
}

type healthResponse struct {
	Status string `json:"status"`
}

// errInvalidResponse distinguishes an unparsable body (exit 2) from an
// unhealthy or unreachable server (exit 1).
type errInvalidResponse struct{ err error }

func (e errInvalidResponse) Error() string { return e.err.Error() }

func runHealthcheck(cmd *cobra.Command, args []string) error {
	url := healthcheckURL
	if url == "" {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		url = fmt.Sprintf("http://localhost:%s/health", port)
	}

	if err := checkHealth(url, time.Duration(healthcheckTimeout)*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		code := 1
		if _, ok := err.(errInvalidResponse); ok {
			code = 2
		}
		os.Exit(code)
	}
	return nil
}

func checkHealth(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return errInvalidResponse{err: fmt.Errorf("parse response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	if health.Status != "healthy" {
		return fmt.Errorf("unhealthy: status=%s", health.Status)
	}
	return nil
}
