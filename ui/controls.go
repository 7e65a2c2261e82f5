package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsState is what the controls panel displays.
type ControlsState struct {
	Running         bool
	MutationRate    float32
	SemanticGravity float32
}

// ControlsAction reports what the user changed this frame.
type ControlsAction struct {
	MutationRate    float32
	SemanticGravity float32
	RateChanged     bool
	GravityChanged  bool
	ToggleRun       bool
	Reset           bool
}

// ControlsPanel renders the left-side controls panel: knob sliders,
// start/stop and reset buttons, and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Draw renders the controls panel and returns the user's changes.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) ControlsAction {
	action := ControlsAction{
		MutationRate:    state.MutationRate,
		SemanticGravity: state.SemanticGravity,
	}
	if !c.visible {
		return action
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	// Calculate panel height based on content
	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := 170 + int32(totalItems)*lineHeight + padding*2
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	sliderWidth := float32(c.width - padding*2 - 70)

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 24

	// Mutation rate slider
	rl.DrawText("Mutation rate", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 14
	newRate := gui.SliderBar(
		rl.Rectangle{X: x + 24, Y: y, Width: sliderWidth - 24, Height: 16},
		"0", "1",
		state.MutationRate, 0, 1,
	)
	rl.DrawText(fmt.Sprintf("%.3f", state.MutationRate), int32(x+sliderWidth+20), int32(y+2), r.Theme.FontSize, r.Theme.ValueColor)
	if newRate != state.MutationRate {
		action.MutationRate = newRate
		action.RateChanged = true
	}
	y += 26

	// Semantic gravity slider
	rl.DrawText("Semantic gravity", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 14
	newGravity := gui.SliderBar(
		rl.Rectangle{X: x + 24, Y: y, Width: sliderWidth - 24, Height: 16},
		"0", "2",
		state.SemanticGravity, 0, 2,
	)
	rl.DrawText(fmt.Sprintf("%.2f", state.SemanticGravity), int32(x+sliderWidth+20), int32(y+2), r.Theme.FontSize, r.Theme.ValueColor)
	if newGravity != state.SemanticGravity {
		action.SemanticGravity = newGravity
		action.GravityChanged = true
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 90, Height: 26}, toggleText(state.Running, "Stop", "Start")) {
		action.ToggleRun = true
	}
	if gui.Button(rl.Rectangle{X: x + 100, Y: y, Width: 90, Height: 26}, "Reset") {
		action.Reset = true
	}
	y += 40

	// Overlays by category
	iy := int32(y)
	for _, category := range categories {
		rl.DrawText(categoryLabel(category), int32(x), iy, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		iy += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(int32(x), iy, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			iy += lineHeight
		}
	}

	return action
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "debug":
		return "Debug"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
