// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package glfwwindow provides a GLFW-backed framecore.Window.
//
// GLFW creates the window without a client API so the backend can own the
// surface. The platform handles come from GLFW's native accessors:
//
//	Linux, BSD (X11):  (Display*, Window)
//	Windows:           (0, HWND)
//
// Other platforms report (0, 0); use the software backend there.
//
// # Usage
//
//	runtime.LockOSThread()
//
//	win, err := glfwwindow.Open("demo", 800, 600)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer win.Close()
//
//	r, err := framecore.New(ctx, win)
//	...
//	for !win.ShouldClose() {
//		win.PollEvents()
//		if win.TakeResize() {
//			_ = r.ResizeToWindow()
//		}
//		_ = r.Render(vertices)
//	}
//
// # Thread Safety
//
// GLFW must be driven from the main OS thread. Open, PollEvents and Close
// must be called there. Size, ScaleFactor and TakeResize read state cached
// by the event callbacks and are safe from any goroutine.
package glfwwindow
