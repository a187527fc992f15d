// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - MEDIA_DIR: Path to the image directory (default: /media)
//   - TRASH_DIR: Path to the trash directory (default: MEDIA_DIR/.trash)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - SORT_MODE: Initial collection ordering, name or shuffled (default: name)
//   - INCREMENTAL_SHUFFLE: Keep a cached shuffle order when new files appear (default: true)
//   - WATCH_FOLDERS: Watch folders for changes to invalidate cached orders (default: true)
//   - BATCH_SIZE: Records published per thumbnail batch (default: 100)
//   - THUMB_CONCURRENCY: Concurrent thumbnail decodes per batch (default: 10)
//   - BATCH_DELAY: Pause between thumbnail batches as Go duration (default: 50ms)
//   - CACHE_MAX_ENTRIES: Full image cache entry budget (default: 20)
//   - CACHE_MAX_BYTES: Full image cache byte budget (default: 2147483648)
//   - PREFETCH_RADIUS: Neighbors pre-decoded on each side of the selection (default: 2)
//   - SLIDESHOW_DWELL: Time each image is shown during playback (default: 3s)
//   - SLIDESHOW_TICK: Playback progress update cadence (default: 50ms)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - PROBE_WORKERS: Override for the dimension probe worker count
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Media directory: Checked but failures only warn (it may be mounted later)
//   - Trash directory: Optional, deletes are rejected when it is not writable
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogImagingInit]: Image processing backend selection
//   - [LogEnumeratorInit]: Enumerator configuration
//   - [LogCollectionLoaded]: Folder load timing
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	// Initialize components...
//	startup.LogImagingInit(imgproc.IsVipsAvailable())
//	startup.LogEnumeratorInit(config.SortMode, probeWorkers, config.WatchFolders)
//
//	// Start server...
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
