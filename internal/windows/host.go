// Package windows abstracts the desktop shell that hosts browser windows.
// The control plane only ever talks to the Host interface; the real shell
// lives outside this process.
package windows

// Host exposes the window-handle operations the control plane needs
type Host interface {
	// FromID reports whether the handle refers to a live window
	FromID(windowID int) bool
	Show(windowID int) error
	Hide(windowID int) error
	Focus(windowID int) error
	Close(windowID int) error
	// OSProcessID returns the OS pid backing the window, 0 if unknown
	OSProcessID(windowID int) int
}

// NoopHost satisfies Host without a desktop shell. Every operation succeeds
// and reports nothing, which keeps the control plane runnable headless.
type NoopHost struct{}

func (NoopHost) FromID(int) bool     { return false }
func (NoopHost) Show(int) error      { return nil }
func (NoopHost) Hide(int) error      { return nil }
func (NoopHost) Focus(int) error     { return nil }
func (NoopHost) Close(int) error     { return nil }
func (NoopHost) OSProcessID(int) int { return 0 }
