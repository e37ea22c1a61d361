package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pointer/robot"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides the config file)")
	mock := flag.Bool("mock", false, "use the mock hand detector")
	headless := flag.Bool("headless", false, "run without the system tray")
	flag.Parse()

	fmt.Println("Mudra - Hand Gesture Pointer")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid flags: %v", err)
		}
	}

	// Initialize the journal store
	var st *store.Store
	if dbPath := cfg.StorePath(); dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		st, err = store.New(dbPath)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer st.Close()
	}

	var det detector.Detector
	if *mock {
		det = detector.NewMockDetector()
	}

	application := app.New(app.Config{
		Store:          st,
		Camera:         capture.NewCamera(cfg.CaptureConfig()),
		Detector:       det,
		Sink:           robot.New(),
		DetectorConfig: cfg.DetectorConfig(),
		Gesture:        cfg.GestureConfig(),
		Pointer:        cfg.PointerConfig(robot.ScreenSize),
		IdleFPS:        cfg.Pipeline.IdleFPS,
		ActiveFPS:      cfg.Pipeline.ActiveFPS,
		IdleTimeout:    cfg.Pipeline.IdleTimeout,
	})

	hub := server.NewHub()
	application.OnEvent(func(e app.Event) { hub.Publish(e) })

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Hub:       hub,
		Enabled:   application.IsEnabled,
	})
	httpServer := srv.Handler(cfg.Addr())

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
		}
	}()

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			application.Stop()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				log.Printf("Server shutdown: %v", err)
			}
			hub.Close()
		})
	}
	defer shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if *headless {
		<-sigCh
		return
	}

	t := tray.New()
	t.OnToggle(application.SetEnabled)
	t.OnJournal(func() {
		url := "http://" + cfg.Addr() + "/api/sessions"
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open %s: %v", url, err)
		}
	})
	t.OnQuit(shutdown)
	application.OnEvent(func(e app.Event) { t.SetLastGesture(e.Gesture) })

	go func() {
		<-sigCh
		t.Quit()
	}()

	t.Run()
}

// findWebDir searches for an optional static dashboard directory.
// It checks: "web", "../web", "../../web", and ~/.mudra/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
