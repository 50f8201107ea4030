// Command touchd runs the touch-foil contact pipeline: it pulls raw
// frames from the USB foil (or a capture file in dev mode), maintains the
// online calibration, and publishes per-frame contact reports over MQTT.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/contact.report/internal/config"
	"github.com/banshee-data/contact.report/internal/version"
	"github.com/banshee-data/contact.report/internal/touch/events"
	"github.com/banshee-data/contact.report/internal/touch/grid"
	"github.com/banshee-data/contact.report/internal/touch/pipeline"
	"github.com/banshee-data/contact.report/internal/touch/store"
	"github.com/banshee-data/contact.report/internal/touch/transport"
)

var (
	devMode    = flag.Bool("dev", false, "Replay a capture file instead of opening the USB foil")
	capture    = flag.String("capture", "capture.raw", "Capture file to replay in dev mode")
	dbFile     = flag.String("db", "touch_data.db", "Calibration snapshot database")
	configPath = flag.String("config", "", "Optional tuning config (JSON)")
	listen     = flag.String("listen", ":8080", "Status API listen address")
	broker     = flag.String("broker", "", "MQTT broker URL (overrides config; empty with no config logs events instead)")
	sensorID   = flag.String("sensor-id", "foil-01", "Sensor identifier in published events")
)

// status is the mutable view served by the HTTP API. The tick loop owns
// the writes; handlers read under the lock.
type status struct {
	mu           sync.Mutex
	Ticks        uint64    `json:"ticks"`
	SkippedTicks uint64    `json:"skipped_ticks"`
	Stage        string    `json:"stage"`
	LastContacts int       `json:"last_contacts"`
	LastTick     time.Time `json:"last_tick"`
}

func (s *status) update(stage pipeline.Stage, contacts, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ticks++
	s.SkippedTicks += uint64(skipped)
	s.Stage = stage.String()
	s.LastContacts = contacts
	s.LastTick = time.Now().UTC()
}

func (s *status) serve(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func main() {
	flag.Parse()
	log.Printf("touchd %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg := &config.TuningConfig{}
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	params := cfg.PipelineParams()

	var source transport.FrameSource
	if *devMode {
		var err error
		source, err = transport.OpenCapture(*capture, true)
		if err != nil {
			log.Fatalf("failed to open capture: %v", err)
		}
	} else {
		var err error
		source, err = transport.OpenUSB()
		if err != nil {
			log.Fatalf("failed to open foil: %v", err)
		}
	}
	defer source.Close()

	db, err := store.New(*dbFile)
	if err != nil {
		log.Fatalf("failed to open snapshot database: %v", err)
	}
	defer db.Close()

	sessionID, err := db.StartSession(*sensorID, "")
	if err != nil {
		log.Fatalf("failed to start session: %v", err)
	}
	defer func() {
		if err := db.EndSession(sessionID); err != nil {
			log.Printf("failed to end session: %v", err)
		}
	}()

	pipe, err := pipeline.New(params)
	if err != nil {
		log.Fatalf("failed to create pipeline: %v", err)
	}

	// Resume from the last persisted calibration when its tuning matches;
	// otherwise run the warmup windows from scratch.
	if snap, err := db.LatestCalSnapshot(*sensorID); err != nil {
		log.Printf("snapshot lookup failed, running full calibration: %v", err)
	} else if snap == nil {
		log.Printf("no stored calibration for %s, running full calibration", *sensorID)
	} else if snap.Params != params {
		log.Printf("stored calibration has different tuning, running full calibration")
	} else if err := pipe.Restore(snap.Baseline, snap.Sigma); err != nil {
		log.Printf("stored calibration rejected, running full calibration: %v", err)
	} else {
		log.Printf("restored calibration snapshot %d (taken %s)",
			snap.ID, time.Unix(0, snap.TakenUnixNanos).UTC().Format(time.RFC3339))
	}

	mqttBroker := cfg.GetBroker()
	if *broker != "" {
		mqttBroker = *broker
	}
	var emitter events.Emitter
	if *broker == "" && *configPath == "" {
		emitter = events.LogEmitter{}
		log.Print("no broker configured, logging contact events")
	} else {
		emitter, err = events.NewMQTTEmitter(mqttBroker, "touchd-"+*sensorID, cfg.GetTopic())
		if err != nil {
			log.Fatalf("failed to connect emitter: %v", err)
		}
	}
	defer emitter.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := &status{Stage: pipe.Stage().String()}

	// Status API goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		mux.HandleFunc("/api/status", st.serve)
		mux.HandleFunc("/api/params", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(params)
		})

		server := &http.Server{Addr: *listen, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start status server: %v", err)
			}
		}()

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("status server shutdown: %v", err)
		}
	}()

	persistSnapshot := func(reason string) {
		baseline, sigma, ok := pipe.Snapshot()
		if !ok {
			return
		}
		_, err := db.InsertCalSnapshot(&store.CalSnapshot{
			SessionID: sessionID,
			SensorID:  *sensorID,
			Params:    params,
			Baseline:  baseline,
			Sigma:     sigma,
			Reason:    reason,
		})
		if err != nil {
			log.Printf("failed to persist calibration snapshot: %v", err)
		}
	}

	// Tick loop
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(cfg.GetPollInterval())
		defer ticker.Stop()
		snapshots := time.NewTicker(cfg.GetSnapshotInterval())
		defer snapshots.Stop()

		frame := make([]byte, grid.FrameSize)
		var tickCount uint64
		for {
			select {
			case <-ctx.Done():
				log.Print("tick loop terminated")
				return
			case <-snapshots.C:
				persistSnapshot("periodic")
			case <-ticker.C:
				if err := source.ReadFrame(ctx, frame); err != nil {
					if ctx.Err() != nil {
						return
					}
					if err == transport.ErrClosed {
						log.Print("frame source closed, shutting down")
						stop()
						return
					}
					// Skipped tick: calibration state is untouched.
					log.Printf("frame read failed, skipping tick: %v", err)
					st.update(pipe.Stage(), 0, 1)
					continue
				}

				contacts, err := pipe.Tick(frame)
				if err != nil {
					log.Printf("tick rejected frame: %v", err)
					st.update(pipe.Stage(), 0, 1)
					continue
				}
				tickCount++
				st.update(pipe.Stage(), len(contacts), 0)

				// Steady ticks always publish, contacts or not: an empty
				// frame is the release marker consumers clear slots on.
				// Calibration ticks return a nil slice and stay silent.
				if contacts != nil {
					if err := emitter.Emit(events.NewFrameEvent(*sensorID, tickCount, contacts)); err != nil {
						log.Printf("failed to publish contacts: %v", err)
					}
				}
			}
		}
	}()

	wg.Wait()
	persistSnapshot("shutdown")
	log.Print("touchd stopped")
}
