package ui

import (
	"log/slog"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/biosynth/components"
)

// persianCodepoints lists the glyphs loaded from a custom font: printable
// ASCII, the Arabic block, ZWNJ, and Arabic presentation forms.
func persianCodepoints() []rune {
	var runes []rune
	for r := rune(0x20); r <= 0x7e; r++ {
		runes = append(runes, r)
	}
	for r := rune(0x0600); r <= 0x06ff; r++ {
		runes = append(runes, r)
	}
	runes = append(runes, 0x200c)
	for r := rune(0xfb50); r <= 0xfdff; r++ {
		runes = append(runes, r)
	}
	for r := rune(0xfe70); r <= 0xfeff; r++ {
		runes = append(runes, r)
	}
	return runes
}

// hueColor maps a 0..360 hue to a display color.
func hueColor(hue float64) rl.Color {
	return rl.ColorFromHSV(float32(hue), 0.7, 0.95)
}

// energyColor runs from red (empty) to green (full).
func energyColor(ratio float32) rl.Color {
	return rl.ColorFromHSV(120*clamp01(ratio), 0.8, 0.9)
}

// WorldView is the graphical Render Sink: organisms drawn as text labels
// coloured by hue. Render only records the snapshot; Draw must be called
// between rl.BeginDrawing and rl.EndDrawing on the window thread.
type WorldView struct {
	font        rl.Font
	customFont  bool
	fontSize    float32
	initialized bool
	fontPath    string

	maxEnergy        float64
	breedingRadius   float32
	attractionRadius float32

	views    []components.OrganismView
	last     map[components.ID]components.OrganismView
	effects  *ParticleRenderer
	selected components.ID
}

// WorldViewOptions configures a WorldView.
type WorldViewOptions struct {
	FontPath         string // empty = raylib default font, which has no Persian glyphs
	FontSize         int
	MaxEnergy        float64
	BreedingRadius   float64
	AttractionRadius float64
}

// NewWorldView creates a world view.
func NewWorldView(opts WorldViewOptions) *WorldView {
	return &WorldView{
		fontPath:         opts.FontPath,
		fontSize:         float32(opts.FontSize),
		maxEnergy:        opts.MaxEnergy,
		breedingRadius:   float32(opts.BreedingRadius),
		attractionRadius: float32(opts.AttractionRadius),
		last:             make(map[components.ID]components.OrganismView),
		effects:          NewParticleRenderer(),
	}
}

// Init loads the font (must be called after the raylib window is created).
func (w *WorldView) Init() {
	if w.initialized {
		return
	}
	if w.fontPath != "" {
		runes := persianCodepoints()
		w.font = rl.LoadFontEx(w.fontPath, int32(w.fontSize), runes, int32(len(runes)))
		w.customFont = true
		slog.Info("font_loaded", "path", w.fontPath, "glyphs", len(runes))
	} else {
		w.font = rl.GetFontDefault()
	}
	w.initialized = true
}

// Font returns the label font.
func (w *WorldView) Font() rl.Font {
	w.Init()
	return w.font
}

// Render records views and spawns birth and death effects by comparing with
// the previous snapshot.
func (w *WorldView) Render(views []components.OrganismView) {
	w.views = append(w.views[:0], views...)

	seen := make(map[components.ID]components.OrganismView, len(views))
	for _, v := range views {
		seen[v.ID] = v
		if _, ok := w.last[v.ID]; !ok && len(w.last) > 0 {
			w.effects.Emit(ParticleBirth, float32(v.X), float32(v.Y), float32(v.Size))
		}
	}
	for id, v := range w.last {
		if _, ok := seen[id]; !ok {
			w.effects.Emit(ParticleDeath, float32(v.X), float32(v.Y), float32(v.Size))
		}
	}
	w.last = seen

	if _, ok := seen[w.selected]; !ok {
		w.selected = 0
	}
}

// Pick selects the organism nearest to (x, y) within its label size and
// returns it. Clicking empty space clears the selection.
func (w *WorldView) Pick(x, y float32) (components.OrganismView, bool) {
	best := math.MaxFloat64
	var found components.OrganismView
	for _, v := range w.views {
		dx, dy := v.X-float64(x), v.Y-float64(y)
		d := dx*dx + dy*dy
		if d < v.Size*v.Size && d < best {
			best = d
			found = v
		}
	}
	w.selected = found.ID
	return found, found.ID != 0
}

// Selected returns the currently selected organism.
func (w *WorldView) Selected() (components.OrganismView, bool) {
	if w.selected == 0 {
		return components.OrganismView{}, false
	}
	v, ok := w.last[w.selected]
	return v, ok
}

// Draw renders the last recorded snapshot.
func (w *WorldView) Draw(overlays *OverlayRegistry) {
	w.Init()

	if overlays.IsEnabled(OverlayEffects) {
		w.effects.Draw()
	}

	for _, v := range w.views {
		if overlays.IsEnabled(OverlayBreedingRadius) {
			rl.DrawCircleLines(int32(v.X), int32(v.Y), w.breedingRadius/2, rl.Fade(rl.SkyBlue, 0.3))
		}
		if overlays.IsEnabled(OverlayAttractionRadius) {
			rl.DrawCircleLines(int32(v.X), int32(v.Y), w.attractionRadius/2, rl.Fade(rl.Purple, 0.2))
		}
	}

	for _, v := range w.views {
		ratio := float32(1)
		if w.maxEnergy > 0 {
			ratio = clamp01(float32(v.Energy / w.maxEnergy))
		}

		color := hueColor(v.Hue)
		if overlays.IsEnabled(OverlayEnergyColors) {
			color = energyColor(ratio)
		}
		// Fade as energy drains
		color = rl.Fade(color, 0.25+0.75*ratio)

		size := float32(v.Size)
		textSize := rl.MeasureTextEx(w.font, v.Text, size, 1)
		pos := rl.Vector2{X: float32(v.X) - textSize.X/2, Y: float32(v.Y) - textSize.Y/2}
		rl.DrawTextEx(w.font, v.Text, pos, size, 1, color)

		if v.Mutating {
			rl.DrawCircleLines(int32(v.X), int32(v.Y), textSize.X/2+6, rl.Fade(rl.White, 0.6))
		}
		if v.ID == w.selected {
			rl.DrawRectangleLines(int32(pos.X)-3, int32(pos.Y)-3, int32(textSize.X)+6, int32(textSize.Y)+6, rl.Yellow)
		}
	}
}

// Unload frees resources.
func (w *WorldView) Unload() {
	if w.initialized && w.customFont {
		rl.UnloadFont(w.font)
	}
	w.initialized = false
}
