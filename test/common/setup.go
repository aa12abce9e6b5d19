// -----------------------------------------------------------------------
// Shared test framework for both UI and API scenarios
// -----------------------------------------------------------------------

package common

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	appcommon "github.com/ternarybob/realworld-e2e/internal/common"
	"github.com/ternarybob/realworld-e2e/internal/models"
	"github.com/ternarybob/realworld-e2e/internal/report"
	"github.com/ternarybob/realworld-e2e/internal/services/realworld"
	"github.com/ternarybob/realworld-e2e/internal/services/realworld/realworldtest"
)

// ConfigFile is the shared scenario configuration, relative to test/api and test/ui
const ConfigFile = "../config/setup.toml"

// suiteDirectories tracks parent directories for test suites
// Maps suite name (e.g., "article") to parent directory path
var suiteDirectories = make(map[string]string)
var suiteDirectoriesMutex sync.Mutex

// TestEnvironment is the per-scenario context: configuration, results directory,
// recorder and, unless a live API is configured, an in-memory backend
type TestEnvironment struct {
	Config     *appcommon.Config
	RunID      string
	TestType   string // "api" or "ui"
	ResultsDir string
	TestLog    *os.File
	Logger     arbor.ILogger
	Recorder   *report.Recorder

	// Backend is the in-memory RealWorld API; nil when running against a live app
	Backend *realworldtest.Server
	server  *httptest.Server
}

// extractSuiteName extracts the test suite name from a test name
// Example: "TestArticleAPI_Create" -> "article"
//
//	"TestTagSearch_PopularTags" -> "tag"
func extractSuiteName(testName string) string {
	remainder := strings.TrimPrefix(testName, "Test")
	if i := strings.IndexAny(remainder, "_/"); i >= 0 {
		remainder = remainder[:i]
	}

	// Everything up to the second capital letter
	var capitals []int
	for i := 0; i < len(remainder); i++ {
		if remainder[i] >= 'A' && remainder[i] <= 'Z' {
			capitals = append(capitals, i)
		}
	}
	if len(capitals) >= 2 {
		return strings.ToLower(remainder[:capitals[1]])
	}
	return strings.ToLower(remainder)
}

// getOrCreateSuiteDirectory gets or creates a parent directory for a test suite
func getOrCreateSuiteDirectory(suiteName string, baseDir string) (string, error) {
	suiteDirectoriesMutex.Lock()
	defer suiteDirectoriesMutex.Unlock()

	if existingDir, ok := suiteDirectories[suiteName]; ok {
		return existingDir, nil
	}

	timestamp := time.Now().Format("20060102-150405")
	suiteDir := filepath.Join(baseDir, fmt.Sprintf("%s-%s", suiteName, timestamp))
	if err := os.MkdirAll(suiteDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create suite directory: %w", err)
	}

	suiteDirectories[suiteName] = suiteDir
	return suiteDir, nil
}

// testType reports "ui" or "api" from the working directory
func testType() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	switch {
	case strings.Contains(cwd, "test\\ui") || strings.Contains(cwd, "test/ui"):
		return "ui", nil
	case strings.Contains(cwd, "test\\api") || strings.Contains(cwd, "test/api"):
		return "api", nil
	}
	return "", fmt.Errorf("scenarios must run from test/ui or test/api, current: %s", cwd)
}

// LiveAPI reports whether scenarios target a running RealWorld API
// (REALWORLD_API_URL set) rather than the in-memory backend
func LiveAPI() bool {
	return os.Getenv("REALWORLD_API_URL") != ""
}

// LoadTestConfig loads ../config/setup.toml with REALWORLD_* overrides
func LoadTestConfig() (*appcommon.Config, error) {
	config, err := appcommon.LoadFromFiles(ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load test config: %w", err)
	}
	return config, nil
}

// SetupTestEnvironment prepares the results directory and recorder for one scenario.
// API scenarios get a fresh in-memory backend unless LiveAPI is true.
func SetupTestEnvironment(testName string) (*TestEnvironment, error) {
	kind, err := testType()
	if err != nil {
		return nil, err
	}

	config, err := LoadTestConfig()
	if err != nil {
		return nil, err
	}

	// ../results/{ui|api}/{suite}-{datetime}/{test}
	resultsBaseDir := filepath.Join(config.Output.ResultsBaseDir, kind)
	suiteDir, err := getOrCreateSuiteDirectory(extractSuiteName(testName), resultsBaseDir)
	if err != nil {
		return nil, err
	}

	resultsDir := filepath.Join(suiteDir, strings.ReplaceAll(testName, "/", "_"))
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create test directory: %w", err)
	}

	testLog, err := os.Create(filepath.Join(resultsDir, "test.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create test log file: %w", err)
	}

	logger := appcommon.SetupLogger(config, resultsDir)
	runID := appcommon.NewRunID()

	env := &TestEnvironment{
		Config:     config,
		RunID:      runID,
		TestType:   kind,
		ResultsDir: resultsDir,
		TestLog:    testLog,
		Logger:     logger,
		Recorder:   report.New(runID, testName, resultsDir, logger),
	}
	env.Recorder.Label("suite", "RealWorld "+strings.ToUpper(kind)+" Tests")
	env.Recorder.Parameter("app_url", config.App.BaseURL)

	if kind == "api" && !LiveAPI() {
		env.Backend = realworldtest.New(
			realworldtest.WithLogger(logger),
			realworldtest.WithUser(env.Credentials()),
		)
		env.server = env.Backend.Start()
		config.App.APIBaseURL = env.server.URL + "/api"
		fmt.Fprintf(testLog, "Started in-memory backend at %s\n", config.App.APIBaseURL)
	}
	env.Recorder.Parameter("api_url", config.App.APIBaseURL)

	logger.Info().
		Str("test", testName).
		Str("run_id", runID).
		Str("api_url", config.App.APIBaseURL).
		Bool("live_api", env.Backend == nil).
		Msg("Test environment ready")

	return env, nil
}

// Setup is SetupTestEnvironment for a *testing.T: it fails the test on error and
// registers Finish as a cleanup
func Setup(t *testing.T) *TestEnvironment {
	t.Helper()
	env, err := SetupTestEnvironment(t.Name())
	require.NoError(t, err, "Failed to setup test environment")
	t.Cleanup(func() { env.Finish(t) })
	return env
}

// Credentials returns the configured primary test user
func (env *TestEnvironment) Credentials() models.Credentials {
	return models.Credentials{
		Email:    env.Config.User.Email,
		Username: env.Config.User.Username,
		Password: env.Config.User.Password,
	}
}

// NewAPIClient builds an unauthenticated client for the configured API
func (env *TestEnvironment) NewAPIClient(opts ...realworld.ClientOption) *realworld.Client {
	base := []realworld.ClientOption{
		realworld.WithLogger(env.Logger),
		realworld.WithRecorder(env.Recorder),
		realworld.WithRateLimit(env.Config.API.RateLimit),
		realworld.WithHTTPClient(&http.Client{Timeout: env.Config.API.RequestTimeoutDuration()}),
		realworld.WithUsername(env.Config.User.Username),
	}
	return realworld.NewClient(env.Config.App.APIBaseURL, append(base, opts...)...)
}

// AuthenticatedClient returns a client logged in (or registered) as the primary test user
func (env *TestEnvironment) AuthenticatedClient(t *testing.T) *realworld.Client {
	t.Helper()
	client := env.NewAPIClient()
	ctx, cancel := context.WithTimeout(context.Background(), env.Config.API.RequestTimeoutDuration())
	defer cancel()

	_, err := client.AuthenticateAs(ctx, env.Credentials())
	require.NoError(t, err, "Failed to authenticate test user")
	return client
}

// Context returns a context bounded by the given timeout and cancelled when the test ends
func (env *TestEnvironment) Context(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// LogTest writes a message to both the test log file and the test output (via t.Log)
func (env *TestEnvironment) LogTest(t *testing.T, format string, args ...interface{}) {
	t.Helper()
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05")

	if env.TestLog != nil {
		fmt.Fprintf(env.TestLog, "[%s] %s\n", timestamp, msg)
	}
	t.Log(msg)
}

// Finish writes report.json with the test's outcome and releases resources
func (env *TestEnvironment) Finish(t *testing.T) {
	status := report.StatusPassed
	switch {
	case t.Skipped():
		status = report.StatusSkipped
	case t.Failed():
		status = report.StatusFailed
	}
	if err := env.Recorder.Finish(status); err != nil {
		t.Logf("Warning: failed to write report: %v", err)
	}
	if env.TestLog != nil {
		fmt.Fprintf(env.TestLog, "\n=== TEST RESULT: %s ===\n", strings.ToUpper(string(status)))
	}
	env.Cleanup()
}

// Cleanup stops the in-memory backend and closes the test log
func (env *TestEnvironment) Cleanup() {
	if env.server != nil {
		env.server.Close()
		env.server = nil
	}
	if env.TestLog != nil {
		env.TestLog.Close()
		env.TestLog = nil
	}
}

// GetResultsDir returns the results directory for this test run
func (env *TestEnvironment) GetResultsDir() string {
	return env.ResultsDir
}
