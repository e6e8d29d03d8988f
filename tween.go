package backdrop

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// FloatTween animates a single float64 field with an easing curve. Call
// Update(dt) each frame; the value is written to the field on every step.
//
// There is no global animation manager. Effects own and advance their tweens.
type FloatTween struct {
	tween *gween.Tween
	field *float64
	Done  bool
}

// TweenFloat creates a tween that moves *field from `from` to `to` over
// duration, writing the starting value immediately.
func TweenFloat(field *float64, from, to float64, duration float32, fn ease.TweenFunc) *FloatTween {
	*field = from
	return &FloatTween{
		tween: gween.New(float32(from), float32(to), duration, fn),
		field: field,
	}
}

// Update advances the tween by dt and writes the eased value. Once finished
// the field holds exactly the end value.
func (t *FloatTween) Update(dt float32) {
	if t.Done {
		return
	}
	val, finished := t.tween.Update(dt)
	*t.field = float64(val)
	t.Done = finished
}
