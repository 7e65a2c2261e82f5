package main

import (
	"context"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/biosynth/camera"
	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/config"
	"github.com/pthm-cable/biosynth/game"
	"github.com/pthm-cable/biosynth/ui"
)

const controlsLegend = "SPACE start/stop | R reset | N snapshot | TAB controls | click inspect | wheel/right-drag view | C recenter | E F B A S P overlays"

// worldFrontend is the raylib window: world view, HUD and panels.
type worldFrontend struct {
	cfg       *config.Config
	cam       *camera.Camera
	world     *ui.WorldView
	overlays  *ui.OverlayRegistry
	hud       *ui.HUD
	controls  *ui.ControlsPanel
	stats     *ui.StatsPanel
	perf      *ui.PerfPanel
	inspector *ui.Inspector
}

func newWorldFrontend(cfg *config.Config) *worldFrontend {
	w := int32(cfg.Screen.Width)
	return &worldFrontend{
		cfg: cfg,
		cam: camera.New(float32(cfg.Screen.Width), float32(cfg.Screen.Height),
			float32(cfg.Derived.WorldW), float32(cfg.Derived.WorldH)),
		world: ui.NewWorldView(ui.WorldViewOptions{
			FontPath:         cfg.Render.FontPath,
			FontSize:         cfg.Render.FontSize,
			MaxEnergy:        cfg.Energy.InitialEnergy,
			BreedingRadius:   cfg.Physics.BreedingRadius,
			AttractionRadius: cfg.Physics.AttractionRadius,
		}),
		overlays:  ui.NewOverlayRegistry(),
		hud:       ui.NewHUD(),
		controls:  ui.NewControlsPanel(10, 10, 240),
		stats:     ui.NewStatsPanel(w-270, 110, 260),
		perf:      ui.NewPerfPanel(10, int32(cfg.Screen.Height)-180),
		inspector: ui.NewInspector(w-270, 400, 260, float32(cfg.Energy.InitialEnergy)),
	}
}

// run opens the window and drives the simulation from the frame loop until
// the window closes, ctx is done, or maxTicks is reached.
func (f *worldFrontend) run(ctx context.Context, sim *game.SimulationContext, extraSeeds []string, maxTicks uint64) {
	rl.InitWindow(int32(f.cfg.Screen.Width), int32(f.cfg.Screen.Height), "Biosynth")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(f.cfg.Screen.TargetFPS))

	f.world.Init()
	defer f.world.Unload()
	f.inspector.SetFont(f.world.Font())

	sim.Start(nil)

	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			slog.Info("shutdown requested", "tick", sim.Tick())
			return
		}

		sim.Advance()
		sim.RecordFrame()

		f.handleInput(sim, extraSeeds)
		f.draw(sim, extraSeeds)

		if maxTicks > 0 && sim.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", sim.Tick())
			return
		}
	}
}

func (f *worldFrontend) handleInput(sim *game.SimulationContext, extraSeeds []string) {
	if rl.IsKeyPressed(rl.KeySpace) {
		sim.Toggle(nil)
	}
	if rl.IsKeyPressed(rl.KeyR) {
		f.reset(sim, extraSeeds)
	}
	if rl.IsKeyPressed(rl.KeyN) {
		if path, err := sim.SaveSnapshot(); err != nil {
			slog.Warn("snapshot_failed", "error", err)
		} else {
			slog.Info("snapshot_saved", "path", path)
		}
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		f.controls.Toggle()
	}
	f.overlays.HandleKeys()

	f.cam.Resize(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
	if rl.IsKeyPressed(rl.KeyC) {
		f.cam.Reset()
	}
	mouse := rl.GetMousePosition()
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(1.1)
		if wheel < 0 {
			factor = 1 / factor
		}
		f.cam.ZoomAt(mouse.X, mouse.Y, factor)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		delta := rl.GetMouseDelta()
		f.cam.Pan(-delta.X, -delta.Y)
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		// Clicks on the controls panel are not world picks
		if f.controls.IsVisible() && mouse.X < 260 {
			return
		}
		wx, wy := f.cam.ScreenToWorld(mouse.X, mouse.Y)
		f.world.Pick(wx, wy)
	}
}

// camera2D converts the pan/zoom camera into raylib's form.
func (f *worldFrontend) camera2D() rl.Camera2D {
	return rl.Camera2D{
		Offset: rl.Vector2{X: f.cam.ViewportW / 2, Y: f.cam.ViewportH / 2},
		Target: rl.Vector2{X: f.cam.X, Y: f.cam.Y},
		Zoom:   f.cam.Zoom,
	}
}

func (f *worldFrontend) reset(sim *game.SimulationContext, extraSeeds []string) {
	sim.Reset()
	if err := sim.SeedInitial(extraSeeds...); err != nil {
		slog.Error("reseed_failed", "error", err)
	}
	sim.Start(nil)
}

func (f *worldFrontend) draw(sim *game.SimulationContext, extraSeeds []string) {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 20, A: 255})

	rl.BeginMode2D(f.camera2D())
	rl.DrawRectangleLines(0, 0, int32(f.cam.WorldW), int32(f.cam.WorldH), rl.Color{R: 40, G: 44, B: 56, A: 255})
	f.world.Draw(f.overlays)
	rl.EndMode2D()

	screenW := int32(rl.GetScreenWidth())
	screenH := int32(rl.GetScreenHeight())

	f.hud.Draw(ui.HUDData{
		Title:        "Biosynth",
		Population:   sim.Store().Len(),
		InFlight:     sim.Breeder().InFlight(),
		Tick:         sim.Tick(),
		FPS:          rl.GetFPS(),
		Running:      sim.Running(),
		ScreenWidth:  screenW,
		ScreenHeight: screenH,
	})
	f.hud.DrawControls(screenH, controlsLegend)

	action := f.controls.Draw(ui.ControlsState{
		Running:         sim.Running(),
		MutationRate:    float32(sim.MutationRate()),
		SemanticGravity: float32(sim.SemanticGravity()),
	}, f.overlays)
	f.apply(sim, action, extraSeeds)

	if f.overlays.IsEnabled(ui.OverlayStats) {
		f.stats.SetPosition(screenW-270, 110)
		f.stats.Draw(sim.LastStats())
	}
	if f.overlays.IsEnabled(ui.OverlayPerf) {
		f.perf.Draw(sim.PerfStats())
	}

	if v, ok := f.world.Selected(); ok {
		f.drawInspector(sim, v, screenW)
	}
}

func (f *worldFrontend) drawInspector(sim *game.SimulationContext, v components.OrganismView, screenW int32) {
	ls, ok := sim.Lineage(v.ID)
	f.inspector.SetPosition(screenW-270, 400)
	f.inspector.Draw(ui.InspectorData{
		View:       v,
		Lineage:    ls,
		HasLineage: ok,
		Tick:       sim.Tick(),
	})
}

// apply carries the controls panel's changes into the simulation.
func (f *worldFrontend) apply(sim *game.SimulationContext, action ui.ControlsAction, extraSeeds []string) {
	if action.RateChanged {
		if err := sim.SetMutationRate(float64(action.MutationRate)); err != nil {
			slog.Warn("mutation_rate_rejected", "value", action.MutationRate, "error", err)
		}
	}
	if action.GravityChanged {
		if err := sim.SetSemanticGravity(float64(action.SemanticGravity)); err != nil {
			slog.Warn("semantic_gravity_rejected", "value", action.SemanticGravity, "error", err)
		}
	}
	if action.ToggleRun {
		sim.Toggle(nil)
	}
	if action.Reset {
		f.reset(sim, extraSeeds)
	}
}
