// Command framedemo renders the vertex scene in a window, or headless on the
// software rasterizer with the last frame saved as PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/allbackends"
	"github.com/gogpu/wgpu/hal/software"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/integration/glfwwindow"
)

func init() {
	// GLFW calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	var (
		configPath  = flag.String("config", "", "TOML config file")
		scenePath   = flag.String("scene", "", "TOML scene file, reloaded on change")
		backend     = flag.String("backend", "", "backend: vulkan, metal, dx12, gl, software")
		presentMode = flag.String("present", "", "present mode: fifo, fifo-relaxed, immediate, mailbox")
		width       = flag.Int("width", 800, "window width")
		height      = flag.Int("height", 600, "window height")
		headless    = flag.Bool("headless", false, "render on the software rasterizer without a window")
		frames      = flag.Int("frames", 1, "frames to render in headless mode")
		output      = flag.String("output", "frame.png", "PNG output in headless mode")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	framecore.SetLogger(logger)

	var opts []framecore.Option
	if *configPath != "" {
		cfg, err := framecore.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		opts = cfg.Options()
	}
	// Flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			opts = append(opts, framecore.WithBackend(*backend))
		case "present":
			mode, err := framecore.ParsePresentMode(*presentMode)
			if err != nil {
				log.Fatalf("Invalid -present: %v", err)
			}
			opts = append(opts, framecore.WithPresentMode(mode))
		}
	})

	scene := defaultScene()
	if *scenePath != "" {
		var err error
		if scene, err = loadScene(*scenePath); err != nil {
			log.Fatalf("Failed to load scene: %v", err)
		}
	}
	var current atomic.Pointer[[]framecore.Vertex]
	current.Store(&scene)

	if *scenePath != "" && !*headless {
		stop, err := watchScene(*scenePath, func(v []framecore.Vertex) { current.Store(&v) })
		if err != nil {
			log.Printf("Scene hot reload disabled: %v", err)
		} else {
			defer stop()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if *headless {
		if err := runHeadless(ctx, *width, *height, *frames, *output, &current, opts); err != nil {
			log.Fatalf("Headless render failed: %v", err)
		}
		return
	}
	if err := runWindow(ctx, *width, *height, &current, opts); err != nil {
		log.Fatalf("Render failed: %v", err)
	}
}

func runHeadless(ctx context.Context, width, height, frames int, output string,
	scene *atomic.Pointer[[]framecore.Vertex], opts []framecore.Option) error {
	opts = append(opts,
		framecore.WithHALBackend(software.API{}),
		framecore.WithFormat(gputypes.TextureFormatRGBA8Unorm),
	)
	r, err := framecore.New(ctx, framecore.NewHeadlessWindow(width, height), opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	for i := 0; i < frames; i++ {
		if err := renderFrame(r, *scene.Load()); err != nil {
			return err
		}
	}

	img, err := r.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Printf("Frame saved to %s (%dx%d)\n", output, width, height)
	return nil
}

func runWindow(ctx context.Context, width, height int,
	scene *atomic.Pointer[[]framecore.Vertex], opts []framecore.Option) error {
	win, err := glfwwindow.Open("framedemo", width, height)
	if err != nil {
		return err
	}
	defer win.Close()

	r, err := framecore.New(ctx, win, opts...)
	if err != nil {
		return err
	}
	defer r.Close()

	info := r.AdapterInfo()
	log.Printf("framecore %s: rendering on %s (%v), %v, %v\n",
		framecore.Version, info.Name, info.DeviceType, r.Format(), r.PresentMode())

	for !win.ShouldClose() {
		win.PollEvents()
		if win.TakeResize() {
			if err := resizeOrWait(r.ResizeToWindow, win.WaitEvents); err != nil {
				return err
			}
		}
		if err := renderFrame(r, *scene.Load()); err != nil {
			if errors.Is(err, framecore.ErrSurfaceOutdated) {
				if err := resizeOrWait(r.ResizeToWindow, win.WaitEvents); err != nil {
					return err
				}
				continue
			}
			return err
		}
	}

	s := r.Stats()
	log.Printf("Presented %d frames, %d failed, %d swap chains\n",
		s.FramesPresented, s.FramesFailed, s.SwapChainGenerations)
	return nil
}

// resizeOrWait rebuilds the swap chain. A minimized window has no size, so
// instead of failing it blocks on wait for up to 100ms.
func resizeOrWait(resize func() error, wait func(timeout float64)) error {
	err := resize()
	if errors.Is(err, framecore.ErrInvalidDimensions) {
		wait(0.1)
		return nil
	}
	return err
}

// renderFrame renders one frame. Recoverable failures other than an outdated
// surface are logged and swallowed so the loop goes on.
func renderFrame(r *framecore.Renderer, vertices []framecore.Vertex) error {
	err := r.Render(vertices)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, framecore.ErrSurfaceOutdated):
		return err
	case framecore.IsRecoverable(err):
		slog.Warn("frame skipped", "err", err)
		return nil
	default:
		return err
	}
}
