// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package glfwwindow

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func nativeHandles(win *glfw.Window) (display, window uintptr) {
	return 0, uintptr(unsafe.Pointer(win.GetWin32Window()))
}
