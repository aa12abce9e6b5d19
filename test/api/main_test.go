// -----------------------------------------------------------------------
// API Test Suite Main Entry Point
// -----------------------------------------------------------------------

package api

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ternarybob/realworld-e2e/internal/services/realworld"
	"github.com/ternarybob/realworld-e2e/test/common"
)

// TestMain verifies a live API is reachable before any scenario runs.
// Without REALWORLD_API_URL each scenario starts its own in-memory backend.
func TestMain(m *testing.M) {
	if common.LiveAPI() {
		if err := verifyServiceConnectivity(); err != nil {
			fmt.Fprintf(os.Stderr, "\n✗ RealWorld API not accessible: %v\n\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "✓ RealWorld API connectivity verified - proceeding with API tests")
	} else {
		fmt.Fprintln(os.Stderr, "REALWORLD_API_URL not set - scenarios run against the in-memory backend")
	}

	os.Exit(m.Run())
}

// verifyServiceConnectivity performs an anonymous GET /tags against the configured API
func verifyServiceConnectivity() error {
	config, err := common.LoadTestConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := realworld.NewClient(config.App.APIBaseURL)
	if _, err := client.GetTags(ctx); err != nil {
		return fmt.Errorf("service not accessible at %s: %w", config.App.APIBaseURL, err)
	}
	return nil
}
