package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/realworld-e2e/internal/common"
	"github.com/ternarybob/realworld-e2e/internal/services/realworld/realworldtest"
)

// TestSuite is one go test package run as a unit
type TestSuite struct {
	Name string
	Path string
}

type TestResult struct {
	Suite    string
	Success  bool
	Duration time.Duration
}

var knownSuites = map[string]TestSuite{
	"unit": {Name: "unit", Path: "./internal/..."},
	"api":  {Name: "api", Path: "./test/api/..."},
	"ui":   {Name: "ui", Path: "./test/ui/..."},
}

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	suitesFlag  = flag.String("suites", "unit,api", "Comma separated suites to run (unit, api, ui)")
	backendAddr = flag.String("backend", "", "Serve the in-memory RealWorld API on this address (e.g. :3000) and point the suites at it")
	runFilter   = flag.String("run", "", "Passed to go test -run")
	verbose     = flag.Bool("v", false, "Verbose go test output")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()
	flag.Parse()

	if len(configFiles) == 0 {
		if _, err := os.Stat("test/config/setup.toml"); err == nil {
			configFiles = append(configFiles, "test/config/setup.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	// One results directory per run, shared by every suite
	runDir, err := filepath.Abs(filepath.Join("test", "results", "run-"+time.Now().Format("20060102-150405")))
	if err != nil {
		fmt.Printf("ERROR: Failed to resolve results directory: %v\n", err)
		os.Exit(1)
	}

	common.InstallCrashHandler(runDir)
	logger := common.SetupLogger(config, runDir)
	common.PrintBanner("REALWORLD E2E", config, logger)

	suites, err := selectSuites(*suitesFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid -suites")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := append(os.Environ(), "REALWORLD_RESULTS_DIR="+runDir)

	if *backendAddr != "" {
		srv, apiURL, err := startBackend(*backendAddr, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to start in-memory backend")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("In-memory backend did not shut down cleanly")
				return
			}
			logger.Info().Msg("✓ In-memory backend stopped")
		}()
		env = append(env, "REALWORLD_API_URL="+apiURL)
	}

	var results []TestResult
	allPassed := true
	for _, suite := range suites {
		logger.Info().Str("suite", suite.Name).Str("path", suite.Path).Msg("Running suite")
		result := runTestSuite(ctx, suite, env)
		results = append(results, result)
		if !result.Success {
			allPassed = false
		}
		if ctx.Err() != nil {
			logger.Warn().Msg("Interrupted - skipping remaining suites")
			break
		}
	}

	printSummary(results, allPassed)
	logger.Info().Str("results", runDir).Msg("Results written")

	if !allPassed {
		os.Exit(1)
	}
}

// selectSuites resolves the -suites list in the order given
func selectSuites(list string) ([]TestSuite, error) {
	var suites []TestSuite
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		suite, ok := knownSuites[name]
		if !ok {
			return nil, fmt.Errorf("unknown suite %q", name)
		}
		suites = append(suites, suite)
	}
	if len(suites) == 0 {
		return nil, errors.New("no suites selected")
	}
	return suites, nil
}

// startBackend binds addr and serves the in-memory API on it, returning the /api root.
// Bind errors are returned before anything is served.
func startBackend(addr string, logger arbor.ILogger) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	backend := realworldtest.New(realworldtest.WithLogger(logger))
	srv := &http.Server{
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	common.SafeGo(logger, "realworldtest-backend", func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("In-memory backend stopped serving")
		}
	})

	apiURL := "http://" + dialAddr(ln.Addr()) + "/api"
	logger.Info().Str("api_url", apiURL).Msg("✓ In-memory backend ready")
	return srv, apiURL, nil
}

// dialAddr turns a listener address into host:port a client can reach; wildcard hosts become localhost
func dialAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return addr.String()
	}
	host := "localhost"
	if tcp.IP != nil && !tcp.IP.IsUnspecified() {
		host = tcp.IP.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}

func runTestSuite(ctx context.Context, suite TestSuite, env []string) TestResult {
	start := time.Now()

	args := []string{"test", "-count=1"}
	if *verbose {
		args = append(args, "-v")
	}
	if *runFilter != "" {
		args = append(args, "-run", *runFilter)
	}
	args = append(args, suite.Path)

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	return TestResult{
		Suite:    suite.Name,
		Success:  err == nil,
		Duration: time.Since(start),
	}
}

func printSummary(results []TestResult, allPassed bool) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TEST SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	totalDuration := time.Duration(0)
	passed := 0
	failed := 0

	for _, result := range results {
		status := "PASS"
		if !result.Success {
			status = "FAIL"
			failed++
		} else {
			passed++
		}

		fmt.Printf("%-30s %s (%.2fs)\n", result.Suite, status, result.Duration.Seconds())
		totalDuration += result.Duration
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Total: %d passed, %d failed (%.2fs)\n", passed, failed, totalDuration.Seconds())

	if allPassed {
		fmt.Println("\n✓ ALL TESTS PASSED")
	} else {
		fmt.Println("\n✗ SOME TESTS FAILED")
	}
}
