package main

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/cellux/waveview/gles"
	"github.com/cellux/waveview/internal/audiofile"
	"github.com/cellux/waveview/internal/config"
	"github.com/cellux/waveview/internal/viewer"
	"github.com/cellux/waveview/waveform"
)

const (
	hudFontSize viewer.FontSizeInPoints = 11
	hudPadding                          = 4
	zoomStep                            = 0.5
	panStep                             = 0.25
)

var hudColor = [4]float32{0.8, 0.8, 0.8, 1}

type App struct {
	cfg          *config.Config
	path         string
	sampleRate   int
	samples      *waveform.SampleBuffer
	view         viewer.View
	history      viewer.History
	keymap       viewer.KeyMap
	events       *viewer.EventQueue
	shouldExit   bool
	contentScale float32
	lastError    error

	device   *gles.Device
	renderer *waveform.Renderer
	surface  *gles.Surface
	text     *gles.TextLayer
	fbSize   image.Point

	cancelWatch context.CancelFunc
}

func CreateApp(cfg *config.Config, path string, file *audiofile.File, samples *waveform.SampleBuffer) *App {
	return &App{
		cfg:          cfg,
		path:         path,
		sampleRate:   file.SampleRate,
		samples:      samples,
		view:         viewer.FullView(samples.Count()),
		contentScale: 1,
	}
}

func (app *App) postEvent(ev viewer.Event, dropIfFull bool) {
	if !app.events.Post(ev, dropIfFull) {
		logger.Debug("event dropped")
	}
}

func (app *App) Init() error {
	app.events = viewer.NewEventQueue(64)
	// the queue must complete a frame before the renderer runs out of slots
	device, err := gles.NewDevice(gles.WithMaxPending(app.cfg.MaxInFlight - 1))
	if err != nil {
		return err
	}
	app.device = device
	constants, err := app.cfg.Constants()
	if err != nil {
		return err
	}
	clearColor, err := app.cfg.ClearColor()
	if err != nil {
		return err
	}
	renderer, err := waveform.NewRenderer(device,
		waveform.WithConstants(constants),
		waveform.WithClearColor(clearColor),
		waveform.WithMaxInFlight(app.cfg.MaxInFlight))
	if err != nil {
		return err
	}
	app.renderer = renderer
	app.surface = gles.NewSurface(image.Point{}, image.Rectangle{})
	if err := app.loadFont(); err != nil {
		return err
	}

	km := viewer.CreateKeyMap()
	zoomIn := func() { app.navigate(app.view.Zoom(zoomStep)) }
	zoomOut := func() { app.navigate(app.view.Zoom(1 / zoomStep)) }
	km.Bind("Up", zoomIn)
	km.Bind("=", zoomIn)
	km.Bind("S-=", zoomIn)
	km.Bind("Down", zoomOut)
	km.Bind("-", zoomOut)
	km.Bind("Left", func() { app.navigate(app.view.Pan(-panStep)) })
	km.Bind("Right", func() { app.navigate(app.view.Pan(panStep)) })
	km.Bind("S-Left", func() { app.navigate(app.view.Pan(-1)) })
	km.Bind("S-Right", func() { app.navigate(app.view.Pan(1)) })
	km.Bind("PageUp", func() { app.navigate(app.view.Pan(-1)) })
	km.Bind("PageDown", func() { app.navigate(app.view.Pan(1)) })
	km.Bind("Home", func() { app.navigate(app.view.Home()) })
	km.Bind("End", func() { app.navigate(app.view.End()) })
	km.Bind("0", func() { app.navigate(viewer.FullView(app.samples.Count())) })
	km.Bind("C-z", app.undo)
	km.Bind("u", app.undo)
	km.Bind("M-w", app.copyWindow)
	km.Bind("C-r", func() { go app.reload() })
	km.Bind("C-q", app.Quit)
	km.Bind("q", app.Quit)
	km.Bind("Escape", app.Quit)
	app.keymap = km
	logger.Debug("key bindings", "keys", km.Keys())

	if app.cfg.Watch {
		if err := app.startWatching(); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) loadFont() error {
	font, err := viewer.LoadMonoFont()
	if err != nil {
		return err
	}
	face, err := font.GetFace(hudFontSize, 96*float64(app.contentScale))
	if err != nil {
		return err
	}
	atlas, err := viewer.BuildAtlas(face, 16, 8)
	if err != nil {
		return err
	}
	text, err := gles.NewTextLayer(atlas.Image, atlas.TileSize, atlas)
	if err != nil {
		return err
	}
	if app.text != nil {
		app.text.Close()
	}
	app.text = text
	return nil
}

func (app *App) startWatching() error {
	w, err := viewer.NewWatcher(app.path, viewer.DefaultDebounce)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	app.cancelWatch = cancel
	go func() {
		if err := w.Run(ctx, app.reload); err != nil && ctx.Err() == nil {
			logger.Warn("watcher stopped", "error", err)
		}
	}()
	logger.Info("watching", "path", w.Path())
	return nil
}

// reload decodes the file again and posts the result to the main
// thread. A new SampleBuffer makes the renderer rebuild its pyramid.
func (app *App) reload() {
	file, err := audiofile.Load(app.path)
	if err == nil {
		var samples *waveform.SampleBuffer
		samples, err = file.SampleBuffer(app.cfg.Channel)
		if err == nil {
			app.postEvent(func() {
				app.sampleRate = file.SampleRate
				app.samples = samples
				app.view = app.view.WithTotal(samples.Count())
				app.history.Clear()
				app.lastError = nil
				logger.Info("reloaded", "path", app.path, "samples", samples)
			}, false)
			return
		}
	}
	app.postEvent(func() {
		app.lastError = err
	}, false)
}

func (app *App) navigate(next viewer.View) {
	app.history.Dispatch(viewer.Navigate(&app.view, next))
}

func (app *App) undo() {
	app.history.Undo()
}

func (app *App) copyWindow() {
	text := viewer.ClipboardText(app.view)
	if err := clipboard.WriteAll(text); err != nil {
		app.lastError = fmt.Errorf("copy to clipboard: %w", err)
		return
	}
	logger.Info("copied window to clipboard", "window", text)
}

func (app *App) IsRunning() bool {
	return !app.shouldExit
}

func (app *App) Quit() {
	app.shouldExit = true
}

func (app *App) OnKey(key glfw.Key, scancode int, action glfw.Action, modes glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}
	var keyName string
	switch key {
	case glfw.KeyLeftShift, glfw.KeyLeftControl, glfw.KeyLeftAlt, glfw.KeyLeftSuper:
		return
	case glfw.KeyRightShift, glfw.KeyRightControl, glfw.KeyRightAlt, glfw.KeyRightSuper:
		return
	case glfw.KeyEscape:
		keyName = "Escape"
	case glfw.KeyRight:
		keyName = "Right"
	case glfw.KeyLeft:
		keyName = "Left"
	case glfw.KeyDown:
		keyName = "Down"
	case glfw.KeyUp:
		keyName = "Up"
	case glfw.KeyPageUp:
		keyName = "PageUp"
	case glfw.KeyPageDown:
		keyName = "PageDown"
	case glfw.KeyHome:
		keyName = "Home"
	case glfw.KeyEnd:
		keyName = "End"
	default:
		keyName = glfw.GetKeyName(key, scancode)
	}
	if keyName == "" {
		return
	}
	keyName = viewer.KeyName(keyName,
		modes&glfw.ModShift != 0,
		modes&glfw.ModAlt != 0,
		modes&glfw.ModControl != 0)
	if app.keymap.HandleKey(keyName) {
		app.lastError = nil
	}
}

func (app *App) OnContentScale(x, y float32) {
	if x <= 0 || x == app.contentScale {
		return
	}
	app.contentScale = x
	if app.text != nil {
		if err := app.loadFont(); err != nil {
			logger.Debug("loadFont failed", "scale", x, "error", err)
		}
		app.layout()
	}
}

func (app *App) OnFramebufferSize(width, height int) {
	size, changed := viewer.ResizeDrawable(app.fbSize, width, height)
	if !changed {
		return
	}
	logger.Debug("OnFramebufferSize", "width", width, "height", height)
	app.fbSize = size
	app.layout()
}

func (app *App) hudHeight() int {
	return app.text.TileSize().Y + 2*hudPadding
}

// layout gives the waveform everything above the status line.
func (app *App) layout() {
	waveRect := image.Rect(0, 0, app.fbSize.X, max(app.fbSize.Y-app.hudHeight(), 0))
	app.surface.SetGeometry(app.fbSize, waveRect)
}

func (app *App) Render() error {
	if err := app.renderer.Set(app.samples, app.view.Start, app.view.Length); err != nil {
		app.lastError = err
	}
	if err := app.renderer.Draw(context.Background(), app.surface); err != nil {
		return err
	}
	status := viewer.StatusLine(filepath.Base(app.path), app.cfg.Channel,
		app.view, app.sampleRate, app.renderer.Stats())
	color := hudColor
	if app.lastError != nil {
		status = app.lastError.Error()
		color = [4]float32{1, 0.3, 0.3, 1}
	}
	hudRect := image.Rect(hudPadding, app.fbSize.Y-app.hudHeight()+hudPadding, app.fbSize.X, app.fbSize.Y)
	app.text.Clear()
	app.text.DrawString(0, 0, status)
	app.text.Render(app.fbSize, hudRect, color)
	return nil
}

func (app *App) Update() error {
	app.events.Drain()
	return nil
}

func (app *App) Close() error {
	logger.Debug("Close")
	if app.cancelWatch != nil {
		app.cancelWatch()
	}
	if app.events != nil {
		app.events.Close()
	}
	if app.text != nil {
		app.text.Close()
	}
	if app.renderer != nil {
		app.renderer.Close()
	}
	if app.device != nil {
		app.device.Close()
	}
	return nil
}
