package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/biosynth/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Population   int
	InFlight     int
	Tick         uint64
	FPS          int32
	Running      bool
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD in the top-right corner.
func (h *HUD) Draw(data HUDData) {
	x := data.ScreenWidth - 260

	rl.DrawText(data.Title, x, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Organisms: %d | Breeding: %d", data.Population, data.InFlight),
		x, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | FPS: %d", data.Tick, data.FPS),
		x, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	if !data.Running {
		statusText = "STOPPED"
	}
	rl.DrawText(statusText, x, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase tick timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s  %.0f tps",
		stats.AvgTickDuration.Round(time.Microsecond),
		stats.MaxTickDuration.Round(time.Microsecond),
		stats.TicksPerSecond,
	), x, y, 14, rl.Yellow)
	y += 16

	for _, ph := range telemetry.Phases() {
		pct := stats.PhasePct[ph]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", ph, stats.PhaseAvg[ph].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// StatsPanel renders the last telemetry window.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	sections []SectionDescriptor
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		sections: statsSections(),
	}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Draw renders the stats panel.
func (s *StatsPanel) Draw(stats telemetry.WindowStats) {
	r := s.renderer
	padding := r.Theme.Padding

	lines := int32(2)
	for _, sec := range s.sections {
		lines += int32(len(sec.Fields)) + 1
	}
	r.DrawPanel(s.x, s.y, s.width, lines*r.Theme.LineHeight+padding*2)

	y := s.y + padding
	rl.DrawText(fmt.Sprintf("Window %d-%d", stats.WindowStartTick, stats.WindowEndTick), s.x+padding, y, 14, rl.White)
	y += r.Theme.LineHeight + 4

	for _, sec := range s.sections {
		y = r.DrawSection(s.x+padding, y, sec, stats, s.width-padding*2)
	}
}

// statsSections describes the stats panel layout.
func statsSections() []SectionDescriptor {
	ws := func(d any) telemetry.WindowStats { return d.(telemetry.WindowStats) }
	count := func(label string, get func(telemetry.WindowStats) int) FieldDescriptor {
		return FieldDescriptor{
			Label:  label,
			Widget: WidgetText,
			Format: "%.0f",
			Getter: func(d any) float32 { return float32(get(ws(d))) },
		}
	}

	return []SectionDescriptor{
		{
			Title: "Population",
			Fields: []FieldDescriptor{
				count("Alive", func(s telemetry.WindowStats) int { return s.Population }),
				count("Births", func(s telemetry.WindowStats) int { return s.Births }),
				count("Deaths", func(s telemetry.WindowStats) int { return s.Deaths }),
				count("Max gen", func(s telemetry.WindowStats) int { return s.MaxGeneration }),
			},
		},
		{
			Title: "Breeding",
			Fields: []FieldDescriptor{
				count("Started", func(s telemetry.WindowStats) int { return s.BreedRequests }),
				count("Failed", func(s telemetry.WindowStats) int { return s.BreedFailures }),
				{
					Label:  "Success",
					Widget: WidgetBar,
					Getter: func(d any) float32 { return float32(ws(d).SuccessRate) },
				},
				{
					Label:  "Call ms",
					Widget: WidgetText,
					Format: "%.1f",
					Getter: func(d any) float32 { return float32(ws(d).MeanCallMS) },
				},
			},
		},
		{
			Title: "Energy",
			Fields: []FieldDescriptor{
				{
					Label:      "p10/50/90",
					Widget:     WidgetText,
					TextGetter: func(d any) string { s := ws(d); return fmt.Sprintf("%.0f / %.0f / %.0f", s.EnergyP10, s.EnergyP50, s.EnergyP90) },
				},
			},
		},
	}
}
