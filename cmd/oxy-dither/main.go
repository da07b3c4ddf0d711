// Command oxy-dither renders a grid of textured meshes and shows them through a real-time
// dither post effect. Keys switch the algorithm, matrix size and palette while it runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/Carmen-Shannon/oxy-dither/app"
	"github.com/Carmen-Shannon/oxy-dither/common"
	"github.com/Carmen-Shannon/oxy-dither/engine"
	"github.com/Carmen-Shannon/oxy-dither/engine/camera"
	"github.com/Carmen-Shannon/oxy-dither/engine/dither"
	"github.com/Carmen-Shannon/oxy-dither/engine/hud"
	"github.com/Carmen-Shannon/oxy-dither/engine/postfx"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dither/engine/renderer/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-dither/engine/window"
	"github.com/gdamore/tcell/v2"
)

const HelpBanner = `
╔═╗═╗ ╦╦ ╦  ╔╦╗╦╔╦╗╦ ╦╔═╗╦═╗
║ ║╔╩╦╝╚╦╝   ║║║ ║ ╠═╣║╣ ╠╦╝
╚═╝╩ ╚═ ╩   ═╩╝╩ ╩ ╩ ╩╚═╝╩╚═

Real-time dither post effect.

Keys:
%s  arrows  orbit camera    space  reset camera    esc  quit
  drag    orbit camera    scroll zoom

`

var (
	width      = flag.Int("width", 1280, "Window width")
	height     = flag.Int("height", 720, "Window height")
	title      = flag.String("title", "oxy-dither", "Window title")
	algorithm  = flag.String("algorithm", "Bayer_Dither", "Dither algorithm: None, Bayer_Dither, Random_Bayer_Dither or Dot_Bayer_Dither")
	matrixSize = flag.Int("matrix", 2, "Bayer matrix size: 2, 4 or 8")
	palette    = flag.String("palette", "0", "Palette preset, by index or label")
	vsync      = flag.Bool("vsync", true, "Wait for vertical blank when presenting")
	fps        = flag.Float64("fps", 0, "Frame rate cap, 0 for none")
	modelPath  = flag.String("model", "", "OBJ file replacing the sphere")
	modelScale = flag.Float64("model-scale", 1, "Uniform scale applied to -model")
	texture0   = flag.String("texture0", "", "Image used on the cubes")
	texture1   = flag.String("texture1", "", "Image used on the second model")
	perSide    = flag.Int("grid-size", 5, "Instances per side of each model layer")
	grid       = flag.Bool("grid", false, "Start with the debug grid visible")
	cull       = flag.Bool("cull", true, "Skip instances outside the view frustum")
	useHUD     = flag.Bool("hud", false, "Show a control panel in the terminal")
	profile    = flag.Bool("profile", false, "Log frame and memory statistics")
	logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn or error")
	logFile    = flag.String("log-file", "", "Write logs to this file instead of stderr")
)

func init() {
	// GLFW and the WebGPU surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, keyHelp())
		flag.PrintDefaults()
	}
	flag.Parse()

	closeLog, err := setupLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer closeLog()

	if err := run(); err != nil {
		common.Logger().Error("oxy-dither stopped", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run() error {
	params, err := parseParams()
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(*title),
		window.WithSize(*width, *height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	backend, err := wgpu_backend.New(win.SurfaceDescriptor())
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	presentMode := renderer.PresentModeVSync
	if !*vsync {
		presentMode = renderer.PresentModeUncapped
	}
	r, err := renderer.NewRenderer(backend,
		renderer.WithSurfaceSize(win.Width(), win.Height()),
		renderer.WithPresentMode(presentMode),
	)
	if err != nil {
		backend.Release()
		return err
	}
	defer r.Release()

	cam := camera.NewCamera(camera.WithAspect(float32(win.Width()) / float32(win.Height())))

	options := []app.AppBuilderOption{
		app.WithParams(params),
		app.WithGrid(*perSide, 0),
		app.WithFrustumCulling(*cull),
		app.WithModel(*modelPath, float32(*modelScale)),
		app.WithTexture(0, *texture0),
		app.WithTexture(1, *texture1),
		app.WithSnapshotSink(func(s postfx.Snapshot) {
			win.SetTitle(fmt.Sprintf("%s - %s", *title, s))
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *useHUD {
		panel, err := newPanel()
		if err != nil {
			return err
		}
		go func() {
			if err := panel.Run(ctx); err != nil {
				common.Logger().Error("terminal panel stopped", "error", err)
			}
		}()
		options = append(options,
			app.WithCommandSource(panel.Commands()),
			app.WithSnapshotSink(panel.Publish),
			app.WithQuitSignal(panel.Done()),
		)
	}

	demo := app.NewApp(options...)
	win.SetKeyDownCallback(demo.HandleKey)
	win.SetDragCallback(demo.HandleDrag)
	win.SetScrollCallback(demo.HandleScroll)

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithCamera(cam),
		engine.WithProfiling(*profile),
		engine.WithRenderFrameLimit(*fps),
	)
	return eng.Run(demo)
}

// parseParams builds the starting parameter state from the flags.
func parseParams() (*postfx.Params, error) {
	a, err := dither.ParseAlgorithm(*algorithm)
	if err != nil {
		return nil, err
	}
	m, err := dither.ParseMatrixSize(*matrixSize)
	if err != nil {
		return nil, err
	}
	preset, err := postfx.ParsePreset(*palette)
	if err != nil {
		return nil, err
	}
	return postfx.NewParams(
		postfx.WithAlgorithm(a),
		postfx.WithMatrixSize(m),
		postfx.WithPreset(preset),
		postfx.WithGrid(*grid),
	), nil
}

func newPanel() (hud.Panel, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return hud.NewPanel(screen, hud.WithTitle(*title))
}

// setupLogger installs a text handler. The terminal panel owns stderr, so logs are discarded
// there unless -log-file is set.
func setupLogger() (func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", *logLevel, err)
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case *logFile != "":
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
		closeFn = func() { _ = f.Close() }
	case *useHUD:
		out = io.Discard
	}

	common.SetLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return closeFn, nil
}

func keyHelp() string {
	var b strings.Builder
	for _, binding := range postfx.Bindings() {
		fmt.Fprintf(&b, "  %c       %s\n", binding.Key, binding.Help)
	}
	return b.String()
}
