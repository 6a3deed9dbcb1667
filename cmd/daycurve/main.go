package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-daycurve/internal/config"
	"github.com/coreman2200/funtimes-daycurve/internal/led"
	"github.com/coreman2200/funtimes-daycurve/internal/store"
	"github.com/coreman2200/funtimes-daycurve/internal/ws"
)

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		width      = flag.Int("width", 800, "editor canvas width in pixels")
		height     = flag.Int("height", 500, "editor canvas height in pixels")
		fps        = flag.Int("fps", 30, "LED update rate")
		brightness = flag.Float64("brightness", 0.8, "global brightness 0..1")
		driver     = flag.String("driver", "sim", "driver: strip | sim")
		ledCount   = flag.Int("leds", 60, "LED count on the strip")
		colorOrder = flag.String("color", "GRB", "LED color order (e.g. GRB, RGB)")
		speedHz    = flag.Int("speed-hz", 2400000, "SPI NRZ bit rate")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		curvesPath = flag.String("curves", "curves.yaml", "path to the curve set")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	var cfg *config.Config
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		cfg = c
	}

	// ---- Effective params (config overrides flags where set) ----
	eAddr := *addr
	eW, eH := *width, *height
	eFPS, eBright := *fps, *brightness
	eCount, eOrder, eSpeed := *ledCount, *colorOrder, *speedHz
	eCurves := *curvesPath
	selected := *driver
	if cfg != nil {
		if cfg.Server.Addr != "" {
			eAddr = cfg.Server.Addr
		}
		if cfg.Editor.Width > 0 {
			eW = cfg.Editor.Width
		}
		if cfg.Editor.Height > 0 {
			eH = cfg.Editor.Height
		}
		if cfg.FPS > 0 {
			eFPS = cfg.FPS
		}
		if cfg.Brightness > 0 {
			eBright = cfg.Brightness
		}
		if cfg.LED.Count > 0 {
			eCount = cfg.LED.Count
		}
		if cfg.LED.ColorOrder != "" {
			eOrder = cfg.LED.ColorOrder
		}
		if cfg.LED.SpeedHz > 0 {
			eSpeed = cfg.LED.SpeedHz
		}
		if cfg.LED.Driver != "" {
			selected = cfg.LED.Driver
		}
		if cfg.CurvesPath != "" {
			eCurves = cfg.CurvesPath
		}
	}
	if *simOnly {
		selected = "sim"
	}

	// ---- Curve set ----
	set, err := store.Load(eCurves)
	if err != nil {
		log.Warn().Err(err).Str("path", eCurves).Msg("curve set load failed; seeding defaults")
		set = store.DefaultSet()
	}

	// ---- Driver selection ----
	var drv led.Driver
	switch selected {
	case "strip":
		d, err := led.NewStrip(eCount, eOrder, eSpeed)
		if err != nil {
			log.Warn().Err(err).Msg("strip init failed; falling back to sim")
			drv = led.NewSim()
		} else {
			drv = d
		}
	case "sim":
		drv = led.NewSim()
	default:
		log.Warn().Str("driver", selected).Msg("unknown driver; using sim")
		drv = led.NewSim()
	}

	// ---- State ----
	state := ws.New(ws.Options{
		Set:           set,
		CurvesPath:    eCurves,
		Width:         eW,
		Height:        eH,
		FPS:           eFPS,
		Brightness:    eBright,
		LEDCount:      eCount,
		Driver:        drv,
		UnitProcessor: percentLabel,
	})

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/editor", state.HandleEditorWS)
	mux.HandleFunc("/ws/frames", state.HandleFramesWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         eAddr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run render loop & server ----
	ctx, cancel := context.WithCancel(context.Background())
	go state.RunRenderLoop(ctx)
	go func() {
		log.Info().Str("addr", eAddr).Str("driver", selected).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")

	cancel()
	_ = srv.Close()
	if err := drv.Close(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}

// percentLabel renders a normalized value as a whole percentage.
func percentLabel(v float64) string {
	return fmt.Sprintf("%d%%", int(v*100+0.5))
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
