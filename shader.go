package backdrop

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Lazy shader compilation (single-threaded, no sync.Once) ---

// lazyShader compiles a Kage source on first use and caches the result,
// including a failure. Compiled shaders are shared by every effect instance
// and live for the process.
type lazyShader struct {
	name   string
	src    string
	shader *ebiten.Shader
	err    error
}

// get returns the compiled shader. A compile error is wrapped in
// ErrSurfaceUnavailable so mounting effects fail the same way a missing
// GPU context would.
func (l *lazyShader) get() (*ebiten.Shader, error) {
	if l.shader == nil && l.err == nil {
		s, err := ebiten.NewShader([]byte(l.src))
		if err != nil {
			l.err = fmt.Errorf("%w: compile %s shader: %v", ErrSurfaceUnavailable, l.name, err)
		} else {
			l.shader = s
		}
	}
	return l.shader, l.err
}
