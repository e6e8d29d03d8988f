package backdrop

import (
	"time"

	"go.uber.org/zap"
)

// debugLogInterval is how many drawn frames are aggregated per stats line.
const debugLogInterval = 120

// debugStats accumulates per-frame timings. Only populated when the stage
// was created with Debug set.
type debugStats struct {
	updateTime time.Duration
	drawTime   time.Duration
	frames     int
}

// debugLog emits averaged update/draw timings every debugLogInterval frames
// and resets the accumulator.
func (s *Stage) debugLog() {
	if !s.debug || s.stats.frames < debugLogInterval {
		return
	}
	n := time.Duration(s.stats.frames)
	s.log.Debug("frame stats",
		zap.Duration("update_avg", s.stats.updateTime/n),
		zap.Duration("draw_avg", s.stats.drawTime/n),
		zap.Int("frames", s.stats.frames),
		zap.Int("width", s.width),
		zap.Int("height", s.height),
	)
	s.stats = debugStats{}
}
