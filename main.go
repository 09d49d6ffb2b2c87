package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/cloudview/internal/app"
	"github.com/banshee-data/cloudview/internal/config"
	"github.com/banshee-data/cloudview/internal/depth"
	"github.com/banshee-data/cloudview/internal/monitor"
	"github.com/banshee-data/cloudview/internal/snapshot"
	"github.com/banshee-data/cloudview/internal/synth"
	"github.com/banshee-data/cloudview/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address for the monitor HTTP server")
	dbFile     = flag.String("db", "", "Path to the sqlite snapshot database (default from config)")
	configFile = flag.String("config", "", "Path to a JSON config file")
	synthMode  = flag.Bool("synth", false, "Run the synthetic cloud producer")
	synthSeed  = flag.Uint64("synth-seed", 0, "Seed for the synthetic producer (0 = time-based)")
	depthPort  = flag.String("depth-port", "", "Serial device for the depth sensor (default from config)")
	targetFPS  = flag.Int("fps", 0, "Target consumer frame rate (overrides config)")
	radius     = flag.Float64("radius", 0, "Correspondence search radius (overrides config)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Printf("cloudview %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg := config.EmptyViewerConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadViewerConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	dbPath := *dbFile
	if dbPath == "" {
		dbPath = cfg.GetSnapshotPath()
	}

	store, err := snapshot.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open snapshot database: %v", err)
	}
	defer store.Close()

	st, restored, err := store.Load()
	if err != nil {
		log.Fatalf("failed to load persisted session: %v", err)
	}
	if restored {
		log.Printf("restored session %s (%d clouds)", st.SessionID, st.Store.Len())
	} else {
		st = app.NewState()
		st.UpdateView(func(v *app.ViewParams) {
			v.TargetFPS = cfg.GetTargetFPS()
			v.SearchRad = cfg.GetSearchRadius()
			v.Zoom = cfg.GetZoom()
			v.PanX, v.PanY = cfg.GetPan()
			v.RotationX, v.RotationY = cfg.GetRotation()
		})
		log.Printf("starting fresh session %s", st.SessionID)
	}

	// Command-line overrides win over both config and the persisted session.
	st.UpdateView(func(v *app.ViewParams) {
		if *targetFPS > 0 {
			v.TargetFPS = *targetFPS
		}
		if *radius > 0 {
			v.SearchRad = *radius
		}
	})

	sup := app.NewSupervisor(st)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Consumer loop. A restart requested before this goroutine has started
	// relaunches it via the Bootstrap hook instead of setting the flag.
	sup.Bootstrap = func() {
		if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("consumer loop error: %v", err)
		}
		log.Print("consumer loop terminated")
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sup.Bootstrap()
	}()

	if *synthMode {
		seed := *synthSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		gen := synth.NewGenerator(seed,
			synth.WithPointCount(cfg.GetSynthPointCount()),
			synth.WithClusterSize(cfg.GetSynthClusterSize()),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gen.Run(ctx, st.Queue, cfg.GetSynthInterval()); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("synthetic producer error: %v", err)
			}
			log.Print("synthetic producer terminated")
		}()
	}

	device := *depthPort
	if device == "" {
		device = cfg.GetDepthPort()
	}
	if device != "" {
		source, err := depth.OpenSerialSource(device, cfg.GetDepthBaudRate())
		if err != nil {
			log.Fatalf("failed to open depth sensor: %v", err)
		}
		producer := depth.NewProducer(source, st.Queue)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := producer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("depth producer error: %v", err)
			}
			log.Print("depth producer terminated")
		}()
	}

	server := monitor.NewWebServer(monitor.WebServerConfig{
		Address:    *listen,
		Supervisor: sup,
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("monitor server error: %v", err)
		}
		log.Print("monitor server terminated")
	}()

	// Interactive command loop on stdin. Reading stdin cannot be cancelled,
	// so this goroutine is not part of the wait group; it dies with the
	// process.
	go runCommandLoop(os.Stdin, os.Stdout, sup, store, stop)

	wg.Wait()

	saveSession(st, store)
	log.Print("Graceful shutdown complete")
}

// saveSession promotes anything still queued and writes the final session
// snapshot. Runs after the consumer loop has stopped, so the direct store
// access is safe.
func saveSession(st *app.State, store *snapshot.Store) {
	st.Lock()
	for _, c := range st.Queue.DrainAll() {
		if _, err := st.Store.Promote(c); err != nil {
			log.Printf("final drain: dropping cloud: %v", err)
		}
	}
	st.Unlock()

	if err := store.Save(st.Snapshot()); err != nil {
		log.Printf("failed to save session snapshot: %v", err)
		return
	}
	log.Printf("session %s saved", st.SessionID)
}
