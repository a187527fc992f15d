package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"image-browser/internal/logging"
	"image-browser/internal/records"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	MediaDir    string
	TrashDir    string
	Port        string
	MetricsPort string

	SortMode           records.SortMode
	IncrementalShuffle bool
	WatchFolders       bool

	BatchSize        int
	ThumbConcurrency int
	BatchDelay       time.Duration

	CacheMaxEntries int
	CacheMaxBytes   int64
	PrefetchRadius  int

	SlideshowDwell time.Duration
	SlideshowTick  time.Duration

	LogHealthChecks bool
	MetricsEnabled  bool

	// Feature flags based on directory availability
	TrashEnabled bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	mediaDir := getEnv("MEDIA_DIR", "/media")
	trashDir := getEnv("TRASH_DIR", "")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	sortModeStr := getEnv("SORT_MODE", string(records.SortByName))
	incrementalShuffle := getEnvBool("INCREMENTAL_SHUFFLE", true)
	watchFolders := getEnvBool("WATCH_FOLDERS", true)
	batchSize := getEnvInt("BATCH_SIZE", 100)
	thumbConcurrency := getEnvInt("THUMB_CONCURRENCY", 10)
	batchDelay := getEnvDuration("BATCH_DELAY", 50*time.Millisecond)
	cacheMaxEntries := getEnvInt("CACHE_MAX_ENTRIES", 20)
	cacheMaxBytes := getEnvInt64("CACHE_MAX_BYTES", 2<<30)
	prefetchRadius := getEnvInt("PREFETCH_RADIUS", 2)
	slideshowDwell := getEnvDuration("SLIDESHOW_DWELL", 3*time.Second)
	slideshowTick := getEnvDuration("SLIDESHOW_TICK", 50*time.Millisecond)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)

	logging.Info("  MEDIA_DIR:           %s", mediaDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  SORT_MODE:           %s", sortModeStr)
	logging.Info("  INCREMENTAL_SHUFFLE: %v", incrementalShuffle)
	logging.Info("  WATCH_FOLDERS:       %v", watchFolders)
	logging.Info("  BATCH_SIZE:          %d", batchSize)
	logging.Info("  THUMB_CONCURRENCY:   %d", thumbConcurrency)
	logging.Info("  BATCH_DELAY:         %s", batchDelay)
	logging.Info("  CACHE_MAX_ENTRIES:   %d", cacheMaxEntries)
	logging.Info("  CACHE_MAX_BYTES:     %s", formatBytesStartup(cacheMaxBytes))
	logging.Info("  PREFETCH_RADIUS:     %d", prefetchRadius)
	logging.Info("  SLIDESHOW_DWELL:     %s", slideshowDwell)
	logging.Info("  SLIDESHOW_TICK:      %s", slideshowTick)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	sortMode := records.SortMode(sortModeStr)
	switch sortMode {
	case records.SortByName, records.SortShuffled:
	default:
		logging.Warn("  Invalid SORT_MODE %q, using default: %s", sortModeStr, records.SortByName)
		sortMode = records.SortByName
	}

	if batchSize <= 0 {
		logging.Warn("  Invalid BATCH_SIZE, using default: 100")
		batchSize = 100
	}
	if thumbConcurrency <= 0 {
		logging.Warn("  Invalid THUMB_CONCURRENCY, using default: 10")
		thumbConcurrency = 10
	}
	if cacheMaxEntries <= 0 {
		logging.Warn("  Invalid CACHE_MAX_ENTRIES, using default: 20")
		cacheMaxEntries = 20
	}
	if cacheMaxBytes <= 0 {
		logging.Warn("  Invalid CACHE_MAX_BYTES, using default: 2 GiB")
		cacheMaxBytes = 2 << 30
	}
	if prefetchRadius < 0 {
		logging.Warn("  Invalid PREFETCH_RADIUS, using default: 2")
		prefetchRadius = 2
	}

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	mediaDir, err := filepath.Abs(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	logging.Info("  Media directory (absolute): %s", mediaDir)

	if trashDir == "" {
		trashDir = filepath.Join(mediaDir, ".trash")
	}
	trashDir, err = filepath.Abs(trashDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trash directory path: %w", err)
	}
	logging.Info("  Trash directory (absolute): %s", trashDir)

	// Check media directory (warning only; it may be mounted later)
	if err := ensureDirectory(mediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	config := &Config{
		MediaDir:           mediaDir,
		TrashDir:           trashDir,
		Port:               port,
		MetricsPort:        metricsPort,
		SortMode:           sortMode,
		IncrementalShuffle: incrementalShuffle,
		WatchFolders:       watchFolders,
		BatchSize:          batchSize,
		ThumbConcurrency:   thumbConcurrency,
		BatchDelay:         batchDelay,
		CacheMaxEntries:    cacheMaxEntries,
		CacheMaxBytes:      cacheMaxBytes,
		PrefetchRadius:     prefetchRadius,
		SlideshowDwell:     slideshowDwell,
		SlideshowTick:      slideshowTick,
		LogHealthChecks:    logHealthChecks,
		MetricsEnabled:     metricsEnabled,
	}

	// Setup trash directory (optional; deletes are rejected without it)
	config.TrashEnabled = setupOptionalDir(trashDir, "trash")

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Deletes:     %s", enabledString(config.TrashEnabled))
	logging.Info("    Watching:    %s", enabledString(config.WatchFolders))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogImagingInit logs the image processing backend selection
func LogImagingInit(vipsAvailable bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMAGING INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if vipsAvailable {
		logging.Info("  [OK] libvips is available (accelerated full-image pipeline)")
	} else {
		logging.Warn("  libvips unavailable, using CPU image pipeline")
		logging.Warn("  Large images will decode more slowly")
	}
}

// LogEnumeratorInit logs enumerator configuration
func LogEnumeratorInit(mode records.SortMode, probeWorkers int, watching bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ENUMERATOR INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Sort mode:      %s", mode)
	logging.Info("  Probe workers:  %d", probeWorkers)
	logging.Info("  Folder watch:   %s", enabledString(watching))
}

// LogCollectionLoaded logs a completed folder load
func LogCollectionLoaded(folder string, count int, duration time.Duration) {
	logging.Info("  [OK] Loaded %d images from %s in %v", count, folder, duration)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		// Sort group keys
		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		// Print routes by group
		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	// Remove leading slash
	path = strings.TrimPrefix(path, "/")

	// Get first segment
	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	// Special handling for API routes
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____                               ____
   /  _/___ ___  ____ _____ ____     / __ )_________ _      __________  _____
   / // __ '__ \/ __ '/ __ '/ _ \   / __  / ___/ __ \ | /| / / ___/ _ \/ ___/
 _/ // / / / / / /_/ / /_/ /  __/  / /_/ / /  / /_/ / |/ |/ (__  )  __/ /
/___/_/ /_/ /_/\__,_/\__, /\___/  /_____/_/   \____/|__/|__/____/\___/_/
                    /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "media" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func formatBytesStartup(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
