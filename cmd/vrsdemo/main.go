// Command vrsdemo classifies frames into shading rate images and reports
// the resulting rate distribution.
//
// Without -in a synthetic scene is rendered. Each frame is classified,
// the statistics are appended to an optional CSV experiment log, and the
// debug overlay of the last frame can be saved as PNG.
//
// Usage:
//
//	vrsdemo -in frame.png -overlay on -out overlay.png -csv runs.csv
//	vrsdemo -frames 300 -dynamic -target-fps 60 -metrics-addr :9090
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"

	"github.com/gogpu/gg"

	"github.com/gogpu/vrs"
	"github.com/gogpu/vrs/metrics"
)

type config struct {
	input, output, csvPath string
	width, height, frames  int
	pan                    float64

	tier     string
	tileSize int
	extended bool

	overrides vrs.Overrides

	threshold, k, ambient, wfConst float64
	weberFechner, motion           bool
	dynamic                        bool
	targetFPS                      int
	grid                           bool

	experiment  string
	statsEvery  time.Duration
	metricsAddr string
	verbose     bool
}

func main() {
	var cfg config
	d := vrs.DefaultParams()

	flag.StringVar(&cfg.input, "in", "", "input frame (png, jpeg, bmp, webp); empty renders a synthetic scene")
	flag.StringVar(&cfg.output, "out", "", "write the overlay of the last frame to this PNG")
	flag.StringVar(&cfg.csvPath, "csv", "", "append per-frame statistics to this CSV file")
	flag.IntVar(&cfg.width, "width", 1280, "synthetic scene width")
	flag.IntVar(&cfg.height, "height", 720, "synthetic scene height")
	flag.IntVar(&cfg.frames, "frames", 1, "number of frames to classify")
	flag.Float64Var(&cfg.pan, "pan", 0, "horizontal camera motion in pixels per frame")

	flag.StringVar(&cfg.tier, "tier", "2", "capability: 0, 1, 2 or auto (query the GPU)")
	flag.IntVar(&cfg.tileSize, "tile", vrs.DefaultTileSize, "rate image tile size in pixels")
	flag.BoolVar(&cfg.extended, "extended", true, "device supports 2x4, 4x2 and 4x4")

	flag.StringVar(&cfg.overrides.VRS, "vrs", "", "\"off\" disables variable rate shading")
	flag.StringVar(&cfg.overrides.Overlay, "overlay", "", "\"on\" enables the debug overlay")
	flag.StringVar(&cfg.overrides.Rate, "rate", "", "tier 1 shading rate (1X2, 2X1, 2X2, 2X4, 4X2, 4X4)")
	flag.StringVar(&cfg.overrides.Combiner1, "combiner1", "", "first combiner (passthrough, override, min, max, sum)")
	flag.StringVar(&cfg.overrides.Combiner2, "combiner2", "", "second combiner")
	flag.BoolVar(&cfg.grid, "grid", false, "draw the tile grid in the overlay")

	flag.Float64Var(&cfg.threshold, "threshold", d.SensitivityThreshold, "contrast sensitivity threshold")
	flag.Float64Var(&cfg.k, "k", d.QuarterRateSensitivity, "quarter rate sensitivity")
	flag.Float64Var(&cfg.ambient, "ambient", d.AmbientLuma, "ambient luminance")
	flag.Float64Var(&cfg.wfConst, "wf-const", d.WeberFechnerConstant, "Weber-Fechner constant")
	flag.BoolVar(&cfg.weberFechner, "weber-fechner", d.UseWeberFechnerLaw, "apply the Weber-Fechner law")
	flag.BoolVar(&cfg.motion, "motion", d.UseMotionVectors, "relax contrast by motion")
	flag.BoolVar(&cfg.dynamic, "dynamic", false, "derive the threshold from the frame time")
	flag.IntVar(&cfg.targetFPS, "target-fps", vrs.DefaultTargetFPS, "target frame rate of the dynamic threshold")

	flag.StringVar(&cfg.experiment, "experiment", "vrsdemo", "experiment name in the CSV log")
	flag.DurationVar(&cfg.statsEvery, "stats-every", 0, "minimum interval between statistics passes")
	flag.StringVar(&cfg.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	vrs.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("vrsdemo: %v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	capability, err := probe(cfg)
	if err != nil {
		return err
	}

	settings := vrs.DefaultSettings().Apply(cfg.overrides, capability)
	settings.DrawGrid = cfg.grid
	settings.DynamicThreshold = cfg.dynamic
	settings.TargetFPS = cfg.targetFPS
	settings.Params.SensitivityThreshold = cfg.threshold
	settings.Params.QuarterRateSensitivity = cfg.k
	settings.Params.AmbientLuma = cfg.ambient
	settings.Params.WeberFechnerConstant = cfg.wfConst
	settings.Params.UseWeberFechnerLaw = cfg.weberFechner
	settings.Params.UseMotionVectors = cfg.motion || cfg.pan != 0
	settings.Params = settings.Params.Sanitize()

	reg := prometheus.NewRegistry()
	opts := []vrs.Option{vrs.WithRecorder(metrics.NewRecorder(reg))}
	if cfg.statsEvery > 0 {
		opts = append(opts, vrs.WithLimiter(rate.NewLimiter(rate.Every(cfg.statsEvery), 1)))
	}
	if cfg.metricsAddr != "" {
		srv := serveMetrics(cfg.metricsAddr, reg)
		defer srv.Close()
	}

	ctl, err := vrs.NewController(capability, settings, opts...)
	if err != nil {
		return err
	}
	defer ctl.Close()

	state := ctl.ShadingRateState()
	slog.Info("vrsdemo: draw state",
		"enabled", state.Enabled,
		"rate", state.Rate.String(),
		"combiner1", state.Combiners.First.String(),
		"combiner2", state.Combiners.Second.String(),
		"tile_image", state.TileImage)

	var report *vrs.ReportWriter
	if cfg.csvPath != "" {
		f, err := os.OpenFile(cfg.csvPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		report = vrs.NewReportWriter(f)
		defer func() {
			if err := report.Flush(); err != nil {
				slog.Error("vrsdemo: flush report", "err", err)
			}
		}()
	}

	var base image.Image
	if cfg.input != "" {
		if base, err = loadImage(cfg.input); err != nil {
			return err
		}
	}

	var (
		last *vrs.ColorFrame
		pct  vrs.Percentages
	)
	for i := range cfg.frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame := base
		if frame == nil {
			frame = renderScene(cfg.width, cfg.height, float64(i)*cfg.pan)
		}
		in := vrs.Inputs{Color: vrs.ColorFrameFromImage(frame)}
		if cfg.pan != 0 {
			in.Velocity = uniformVelocity(in.Color.Width, in.Color.Height, float32(cfg.pan))
		}

		params := ctl.Settings().Params
		start := time.Now()
		rates, err := ctl.Render(ctx, in)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		elapsed := time.Since(start)
		ctl.Update(elapsed)

		p, fresh, err := ctl.Percentages(ctx)
		if err != nil {
			return fmt.Errorf("frame %d statistics: %w", i, err)
		}
		slog.Debug("vrsdemo: frame", "index", i, "elapsed", elapsed, "fresh", fresh, "rates", p.String())
		pct = p

		if report != nil {
			rec := vrs.ReportRecord{
				UnitTest:      fmt.Sprintf("frame%04d", i),
				Experiment:    cfg.experiment,
				Params:        params,
				PSInvocations: invocations(in.Color, rates),
				CPUTime:       elapsed,
				FrameRate:     frameRate(elapsed),
				Percentages:   p,
			}
			if err := report.Write(rec); err != nil {
				return err
			}
		}
		last = in.Color
	}

	if last == nil {
		return nil
	}
	slog.Info("vrsdemo: rate distribution", "frames", cfg.frames, "rates", pct.String())

	if cfg.output != "" {
		if err := writeOverlay(ctl, last, cfg.output); err != nil {
			return err
		}
	}

	if cfg.metricsAddr != "" {
		slog.Info("vrsdemo: serving metrics, interrupt to exit", "addr", cfg.metricsAddr)
		<-ctx.Done()
	}
	return nil
}

// probe resolves the -tier flag to a capability.
func probe(cfg config) (vrs.Capability, error) {
	var q vrs.FeatureQuerier
	switch cfg.tier {
	case "auto":
		q = gpuQuerier(cfg.tileSize)
	case "0":
		q = vrs.StaticQuerier{Support: vrs.FeatureSupport{Tier: vrs.TierNotSupported}}
	case "1":
		q = vrs.StaticQuerier{Support: vrs.FeatureSupport{Tier: vrs.Tier1, ExtendedRates: cfg.extended}}
	case "2":
		q = vrs.StaticQuerier{Support: vrs.FeatureSupport{
			Tier: vrs.Tier2, TileSize: cfg.tileSize, ExtendedRates: cfg.extended, SumCombiner: true,
		}}
	default:
		return vrs.Capability{}, fmt.Errorf("unknown tier %q", cfg.tier)
	}
	return vrs.Probe(q), nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	slog.Debug("vrsdemo: loaded frame", "path", path, "format", format, "size", img.Bounds().Size())
	return img, nil
}

func uniformVelocity(w, h int, dx float32) *vrs.VelocityFrame {
	v := vrs.NewVelocityFrame(w, h)
	for y := range h {
		for x := range w {
			v.Set(x, y, dx, 0)
		}
	}
	return v
}

// invocations estimates pixel shader invocations: each tile shades its
// pixel count divided by the coarse pixel size. Without a rate image every
// pixel is shaded.
func invocations(f *vrs.ColorFrame, rates *vrs.RateImage) uint64 {
	if rates == nil {
		return uint64(f.Width) * uint64(f.Height) //nolint:gosec // frame dimensions are positive
	}
	var n uint64
	ts := rates.TileSize
	for ty := range rates.Height {
		th := min(ts, f.Height-ty*ts)
		for tx := range rates.Width {
			tw := min(ts, f.Width-tx*ts)
			ax, ay := rates.At(tx, ty).Axes()
			n += uint64((tw + ax - 1) / ax * ((th + ay - 1) / ay)) //nolint:gosec // positive
		}
	}
	return n
}

func frameRate(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(time.Second) / float64(d)
}

func writeOverlay(ctl *vrs.Controller, frame *vrs.ColorFrame, path string) error {
	img, err := ctl.Overlay(frame.Image())
	if err != nil {
		return err
	}
	if img == nil {
		slog.Warn("vrsdemo: overlay is off or no rate image was produced, saving the plain frame")
		img = frame.Image()
	}
	dc := gg.NewContextForImage(img)
	if err := errors.Join(dc.SavePNG(path), dc.Close()); err != nil {
		return fmt.Errorf("save overlay: %w", err)
	}
	slog.Info("vrsdemo: overlay saved", "path", path)
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("vrsdemo: metrics server", "err", err)
		}
	}()
	return srv
}
