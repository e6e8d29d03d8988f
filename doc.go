// Package backdrop is a collection of procedural animated backgrounds for
// [Ebitengine].
//
// Every background is an [Effect]: a fire automaton, a water surface, a
// magnetic spiral with bloom, raymarched metaballs, a point-cloud globe with
// a warp transition, clickable iridescent spheres, neon point-cloud pyramids
// and a glitching character grid. A [Stage] hosts one effect and drives its
// lifecycle: mount, one update per scheduled frame, resize, unmount.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	fx := backdrop.NewGlobe(backdrop.DefaultGlobeConfig())
//	backdrop.Run(fx, backdrop.RunConfig{
//		Title: "Globe", Width: 800, Height: 600,
//	})
//
// Effects can also be constructed by name with [NewEffect], which is what
// the backdrop command does:
//
//	fx, err := backdrop.NewEffect("fire", backdrop.DefaultOptions())
//
// For full control, create a [Stage] yourself. It implements [ebiten.Game],
// so it can be passed straight to ebiten.RunGame or embedded in a larger
// game:
//
//	stage := backdrop.NewStage(fx, backdrop.StageOptions{Logger: logger})
//	if err := stage.Mount(800, 600); err != nil {
//		// the stage stays blank; the error has already been logged
//	}
//	defer stage.Unmount()
//
// # Frames and input
//
// A Stage asks its [FrameScheduler] for one frame at a time and re-arms the
// request from inside each callback, so Unmount only has to cancel the one
// outstanding request. Each frame the effect receives a [Frame] with the
// elapsed time and a [Pointer] snapshot. Pointer events can be injected for
// tests and scripted captures, see [Stage.InjectMove] and [LoadTestScript].
//
// # Terminal rendering
//
// [GlitchGrid] holds the character-grid simulation independently of
// Ebitengine. The backdrop command renders it into a terminal as well as a
// window.
//
// [Ebitengine]: https://ebitengine.org
package backdrop
