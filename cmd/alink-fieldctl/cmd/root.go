package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrolink-io/agrolink/internal/fieldagent"
)

var (
	serverAddr string
	timeout    time.Duration
)

// NewRootCommand builds the fieldctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "alink-fieldctl",
		Short: "Inspect a running AgroLink field agent",
		Long: `alink-fieldctl queries the local status endpoint of a field agent and
renders its fail-safe mode, communication health, operating envelope, and
active diagnostic trouble codes.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s", "http://127.0.0.1:8880",
		"Base URL of the field agent status endpoint.")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second,
		"Timeout for requests to the agent.")

	root.AddCommand(newStatusCommand())
	root.AddCommand(newDTCCommand())

	return root
}

// fetchStatus retrieves and decodes the agent's status document.
func fetchStatus() (*fieldagent.Status, error) {
	client := &http.Client{Timeout: timeout}

	resp, err := client.Get(serverAddr + "/v1/status")
	if err != nil {
		return nil, fmt.Errorf("failed to reach agent at %s: %w", serverAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent returned %s", resp.Status)
	}

	var status fieldagent.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &status, nil
}
