package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"image-browser/internal/browser"
	"image-browser/internal/enumerate"
	"image-browser/internal/fullcache"
	"image-browser/internal/handlers"
	"image-browser/internal/imgproc"
	"image-browser/internal/logging"
	"image-browser/internal/metrics"
	"image-browser/internal/middleware"
	"image-browser/internal/records"
	"image-browser/internal/slideshow"
	"image-browser/internal/startup"
	"image-browser/internal/thumbs"
	"image-browser/internal/trash"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize the imaging backend
	if err := imgproc.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer imgproc.ShutdownVips()
	startup.LogImagingInit(imgproc.IsVipsAvailable())

	// Initialize the enumerator
	enumerator := enumerate.New(imgproc.StdProber{}, enumerate.Config{
		IncrementalShuffle: config.IncrementalShuffle,
	})
	defer enumerator.Close()

	if config.WatchFolders {
		if err := enumerator.Watch(config.MediaDir); err != nil {
			logging.Warn("Failed to watch %s: %v", config.MediaDir, err)
		}
	}
	startup.LogEnumeratorInit(config.SortMode, enumerate.DefaultConfig().ProbeWorkers, config.WatchFolders)

	// Initialize the full-image cache
	cache := fullcache.New(imgproc.NewProcessor(imgproc.DefaultSharpenParams()), fullcache.Config{
		MaxEntries: config.CacheMaxEntries,
		MaxBytes:   config.CacheMaxBytes,
	}, metrics.PromCacheObserver{})

	// Initialize the trash
	var bin trash.Trash
	if config.TrashEnabled {
		bin, err = trash.NewDir(config.TrashDir)
		if err != nil {
			logging.Warn("Trash directory unavailable: %v", err)
			config.TrashEnabled = false
		}
	}
	if bin == nil {
		bin = trash.Disabled{}
	}

	// Wire the browser with its thumbnail pipeline
	var b *browser.Browser
	pipeline := thumbs.New(imgproc.ImagingDecoder{}, thumbs.PublisherFunc(func(recs []*records.ImageRecord) {
		b.AppendBatch(recs)
	}), thumbs.Config{
		BatchSize:          config.BatchSize,
		Concurrency:        config.ThumbConcurrency,
		BatchDelay:         config.BatchDelay,
		PlaceholderOnError: true,
	})

	b = browser.New(enumerator, pipeline, cache, bin, browser.Config{
		PrefetchRadius: config.PrefetchRadius,
		Slideshow: slideshow.Config{
			TickInterval: config.SlideshowTick,
			DwellTime:    config.SlideshowDwell,
		},
	})
	defer b.Stop()

	// Open the configured media directory. Batches arrive asynchronously, so
	// the loaded count is only known once the pipeline settles.
	loadStart := time.Now()
	if err := b.OpenFolder(context.Background(), config.MediaDir, config.SortMode); err != nil {
		startup.LogFatal("Failed to open %s: %v", config.MediaDir, err)
	}
	go func() {
		pipeline.Wait()
		startup.LogCollectionLoaded(config.MediaDir, len(b.Records()), time.Since(loadStart))
	}()

	// Initialize handlers
	h := handlers.New(b, config)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics middleware
	meteredHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(meteredHandler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start the metrics server
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, b, enumerator)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Collection routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/images", h.ListImages).Methods("GET")
	api.HandleFunc("/open", h.OpenFolder).Methods("POST")
	api.HandleFunc("/thumbnail/{id}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/image/{id}", h.GetImage).Methods("GET")

	// Navigation routes
	api.HandleFunc("/select/{id}", h.SelectImage).Methods("POST")
	api.HandleFunc("/next", h.NextImage).Methods("POST")
	api.HandleFunc("/previous", h.PreviousImage).Methods("POST")
	api.HandleFunc("/delete", h.DeleteImage).Methods("POST")

	// Slideshow routes
	api.HandleFunc("/slideshow", h.GetSlideshow).Methods("GET")
	api.HandleFunc("/slideshow/toggle", h.ToggleSlideshow).Methods("POST")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, b *browser.Browser, enumerator *enumerate.Enumerator) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping browser")
	b.Stop()
	startup.LogShutdownStepComplete("Browser stopped")

	startup.LogShutdownStep("Closing folder watches")
	enumerator.Close()
	startup.LogShutdownStepComplete("Folder watches closed")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
