package main

import (
	"runtime"

	gl "github.com/go-gl/gl/v3.1/gles2"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const desiredFPS = 60

func init() {
	runtime.LockOSThread()
}

type GlfwApp interface {
	Init() error
	IsRunning() bool
	OnKey(key glfw.Key, scancode int, action glfw.Action, modes glfw.ModifierKey)
	OnFramebufferSize(width, height int)
	OnContentScale(x, y float32)
	Render() error
	Update() error
	Close() error
}

// WithGL opens a window with an OpenGL ES 3.0 context and runs app in
// it until app stops running.
func WithGL(windowTitle string, width, height int, app GlfwApp) error {
	err := glfw.Init()
	if err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Focused, glfw.True)
	glfw.WindowHint(glfw.DoubleBuffer, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 0)
	window, err := glfw.CreateWindow(width, height, windowTitle, nil, nil)
	if err != nil {
		return err
	}
	defer window.Destroy()
	framebufferSizeCallback := func(w *glfw.Window, width, height int) {
		app.OnFramebufferSize(width, height)
	}
	window.SetFramebufferSizeCallback(framebufferSizeCallback)
	window.SetContentScaleCallback(func(w *glfw.Window, x, y float32) {
		app.OnContentScale(x, y)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		app.OnKey(key, scancode, action, mods)
	})
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return err
	}
	glfw.SwapInterval(1)
	app.OnContentScale(window.GetContentScale())
	if err := app.Init(); err != nil {
		return err
	}
	defer app.Close()
	fbWidth, fbHeight := window.GetFramebufferSize()
	framebufferSizeCallback(window, fbWidth, fbHeight)
	for app.IsRunning() && !window.ShouldClose() {
		start := glfw.GetTime()
		gl.ClearColor(0, 0, 0, 0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
		if err := app.Render(); err != nil {
			return err
		}
		window.SwapBuffers()
		elapsedSeconds := glfw.GetTime() - start
		frameSeconds := 1.0 / desiredFPS
		if frameSeconds > elapsedSeconds {
			glfw.WaitEventsTimeout(frameSeconds - elapsedSeconds)
		} else {
			glfw.PollEvents()
		}
		if err := app.Update(); err != nil {
			return err
		}
	}
	return nil
}
