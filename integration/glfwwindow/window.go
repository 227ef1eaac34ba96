// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glfwwindow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/framecore"
)

// ErrInvalidDimensions is returned by Open for a non-positive size.
var ErrInvalidDimensions = errors.New("glfwwindow: invalid dimensions")

// Window is a GLFW window usable as a framecore.Window.
type Window struct {
	win *glfw.Window

	mu       sync.Mutex
	width    int // logical
	height   int
	fbWidth  int // physical
	fbHeight int
	resized  bool
	closed   bool
}

var _ framecore.Window = (*Window)(nil)

// Open initializes GLFW and creates a resizable window with no client API.
func Open(title string, width, height int) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfwwindow: init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glfwwindow: create window: %w", err)
	}

	w := &Window{win: win}
	w.width, w.height = win.GetSize()
	w.fbWidth, w.fbHeight = win.GetFramebufferSize()

	win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		w.mu.Lock()
		w.width, w.height = width, height
		w.mu.Unlock()
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.mu.Lock()
		w.resized = w.resized || width != w.fbWidth || height != w.fbHeight
		w.fbWidth, w.fbHeight = width, height
		w.mu.Unlock()
	})
	return w, nil
}

// Size implements gpucontext.WindowProvider.
func (w *Window) Size() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// FramebufferSize returns the framebuffer size in physical pixels.
// framecore.PhysicalSize uses it in place of Size times ScaleFactor, which
// can be off by one in height when the two axes round differently.
func (w *Window) FramebufferSize() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fbWidth, w.fbHeight
}

// ScaleFactor implements gpucontext.WindowProvider. It is the ratio of
// framebuffer to window width.
func (w *Window) ScaleFactor() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return scaleFactor(w.width, w.fbWidth)
}

func scaleFactor(logical, physical int) float64 {
	if logical <= 0 || physical <= 0 {
		return 1
	}
	return float64(physical) / float64(logical)
}

// RequestRedraw wakes a blocked WaitEvents.
func (w *Window) RequestRedraw() {
	glfw.PostEmptyEvent()
}

// SurfaceHandles implements framecore.Window.
func (w *Window) SurfaceHandles() (display, window uintptr) {
	if w.win == nil {
		return 0, 0
	}
	return nativeHandles(w.win)
}

// TakeResize reports whether the framebuffer size changed since the last
// call, and clears the flag.
func (w *Window) TakeResize() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := w.resized
	w.resized = false
	return r
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.win == nil || w.win.ShouldClose()
}

// PollEvents processes pending window events.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until an event arrives or timeout seconds pass.
func (w *Window) WaitEvents(timeout float64) {
	glfw.WaitEventsTimeout(timeout)
}

// Close destroys the window and terminates GLFW. It is idempotent.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	if w.win != nil {
		w.win.Destroy()
		w.win = nil
	}
	glfw.Terminate()
}
