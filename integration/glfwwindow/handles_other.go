// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !windows && !(linux && !wayland) && !(freebsd && !wayland) && !(netbsd && !wayland) && !(openbsd && !wayland)

package glfwwindow

import "github.com/go-gl/glfw/v3.3/glfw"

// nativeHandles reports no surface. macOS needs a CAMetalLayer attached to
// the content view, which GLFW does not create.
func nativeHandles(*glfw.Window) (display, window uintptr) {
	return 0, 0
}
