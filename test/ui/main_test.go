// -----------------------------------------------------------------------
// UI Test Suite Main Entry Point
// -----------------------------------------------------------------------

package ui

import (
	"fmt"
	"os"
	"testing"
)

// TestMain reports how the UI scenarios will run. They are skipped unless
// REALWORLD_UI=1, because they drive Chrome against a running RealWorld app.
func TestMain(m *testing.M) {
	if os.Getenv("REALWORLD_UI") == "1" {
		fmt.Fprintln(os.Stderr, "✓ REALWORLD_UI=1 - running browser scenarios")
	} else {
		fmt.Fprintln(os.Stderr, "REALWORLD_UI not set - browser scenarios will be skipped")
	}
	os.Exit(m.Run())
}
