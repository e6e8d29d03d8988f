package backdrop

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// leftPosition is where a pointer is parked after it leaves the surface.
// Effects treat any coordinate below -500 as "no pointer".
const leftPosition = -1000

// Pointer is the per-frame pointer snapshot handed to effects. Coordinates
// are in surface pixels.
type Pointer struct {
	X, Y float64
	// Inside is false once the pointer has left the surface; X and Y are
	// then parked at -1000.
	Inside bool
	// Down reports whether the primary button or a touch is held.
	Down bool
	// Moved reports whether the position changed since the previous frame.
	Moved bool
	// Clicked is true on the frame a press is released over the surface.
	Clicked bool
}

// Normalized returns the pointer position in [0, 1] surface units, Y down.
func (p Pointer) Normalized(w, h int) Vec2 {
	if w <= 0 || h <= 0 {
		return Vec2{}
	}
	return Vec2{X: p.X / float64(w), Y: p.Y / float64(h)}
}

// Active reports whether the pointer currently hovers the surface.
func (p Pointer) Active() bool {
	return p.Inside && p.X > -500
}

// --- Per-stage pointer state ---

type pointerState struct {
	cur      Pointer
	prevDown bool
	touchID  ebiten.TouchID
	touching bool
	touchBuf []ebiten.TouchID
}

// begin resets the per-frame edge flags.
func (ps *pointerState) begin() {
	ps.cur.Moved = false
	ps.cur.Clicked = false
}

// apply feeds one pointer sample through the state machine.
func (ps *pointerState) apply(x, y float64, inside, down bool) {
	if !inside {
		x, y = leftPosition, leftPosition
	}
	if x != ps.cur.X || y != ps.cur.Y {
		ps.cur.Moved = true
	}
	ps.cur.X, ps.cur.Y = x, y
	ps.cur.Inside = inside
	if ps.prevDown && !down && inside {
		ps.cur.Clicked = true
	}
	ps.cur.Down = down
	ps.prevDown = down
}

// processInput reads one frame of pointer input. Injected events take
// priority; real input is skipped on frames that consume one.
func (s *Stage) processInput() {
	ps := &s.pointer
	ps.begin()
	if s.processInjectedInput() {
		return
	}
	if !s.ReadDeviceInput {
		return
	}

	// Touch wins over the mouse while a finger is down.
	ps.touchBuf = inpututil.AppendJustPressedTouchIDs(ps.touchBuf[:0])
	if !ps.touching && len(ps.touchBuf) > 0 {
		ps.touchID = ps.touchBuf[0]
		ps.touching = true
	}
	if ps.touching {
		tx, ty := ebiten.TouchPosition(ps.touchID)
		if inpututil.IsTouchJustReleased(ps.touchID) {
			ps.touching = false
			x, y := inpututil.TouchPositionInPreviousTick(ps.touchID)
			ps.apply(float64(x), float64(y), true, false)
			return
		}
		ps.apply(float64(tx), float64(ty), true, true)
		return
	}

	mx, my := ebiten.CursorPosition()
	inside := mx >= 0 && my >= 0 && mx < s.width && my < s.height
	ps.apply(float64(mx), float64(my), inside, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
}
