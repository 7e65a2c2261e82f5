package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/biosynth/components"
	"github.com/pthm-cable/biosynth/telemetry"
)

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	View       components.OrganismView
	Lineage    telemetry.LineageStats
	HasLineage bool
	Tick       uint64
}

// Inspector renders the selected organism's panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
	font     rl.Font
	hasFont  bool
	sections []SectionDescriptor
}

// NewInspector creates a new inspector panel. maxEnergy is the full scale
// of the energy bar.
func NewInspector(x, y, width int32, maxEnergy float32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		sections: inspectorSections(maxEnergy),
	}
}

// SetFont sets the font used for the organism preview.
func (ins *Inspector) SetFont(font rl.Font) {
	ins.font = font
	ins.hasFont = true
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data InspectorData) {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	lines := int32(0)
	for _, sec := range ins.sections {
		lines += int32(len(sec.Fields)) + 1
	}
	previewHeight := int32(60)
	r.DrawPanel(ins.x, ins.y, ins.width, previewHeight+lines*r.Theme.LineHeight+padding*3+20)

	y := ins.drawPreview(ins.x+padding, ins.y+padding, contentWidth, previewHeight, data.View)
	y += 8

	for _, sec := range ins.sections {
		y = r.DrawSection(ins.x+padding, y, sec, data, contentWidth)
	}
}

// drawPreview draws the organism's text centered in a framed box.
func (ins *Inspector) drawPreview(x, y, width, height int32, v components.OrganismView) int32 {
	rl.DrawRectangle(x, y, width, height, rl.Color{R: 10, G: 12, B: 16, A: 255})
	rl.DrawRectangleLines(x, y, width, height, ins.renderer.Theme.PanelBorder)

	font := rl.GetFontDefault()
	if ins.hasFont {
		font = ins.font
	}
	size := float32(v.Size) * 1.5
	textSize := rl.MeasureTextEx(font, v.Text, size, 1)
	pos := rl.Vector2{
		X: float32(x) + (float32(width)-textSize.X)/2,
		Y: float32(y) + (float32(height)-textSize.Y)/2,
	}
	rl.DrawTextEx(font, v.Text, pos, size, 1, hueColor(v.Hue))

	return y + height
}

// inspectorSections describes the inspector layout.
func inspectorSections(maxEnergy float32) []SectionDescriptor {
	id := func(d any) InspectorData { return d.(InspectorData) }
	hasLineage := func(d any) bool { return id(d).HasLineage }

	return []SectionDescriptor{
		{
			Title: "Organism",
			Fields: []FieldDescriptor{
				{Label: "ID", Widget: WidgetText, TextGetter: func(d any) string { return fmt.Sprintf("%d", id(d).View.ID) }},
				{Label: "Hue", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color { return hueColor(id(d).View.Hue) }},
				{Label: "Energy", Widget: WidgetEnergyBar, Max: maxEnergy, Getter: func(d any) float32 { return float32(id(d).View.Energy) }},
				{Label: "Breeding", Widget: WidgetText, TextGetter: func(d any) string { return toggleText(id(d).View.Mutating, "yes", "no") }},
			},
		},
		{
			Title:   "Lineage",
			Visible: hasLineage,
			Fields: []FieldDescriptor{
				{Label: "Generation", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 { return float32(id(d).Lineage.Generation) }},
				{Label: "Parents", Widget: WidgetText, TextGetter: func(d any) string {
					ls := id(d).Lineage
					if ls.ParentA == 0 {
						return "seed"
					}
					return fmt.Sprintf("%d + %d", ls.ParentA, ls.ParentB)
				}},
				{Label: "Children", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 { return float32(id(d).Lineage.Children) }},
				{Label: "Age", Widget: WidgetText, TextGetter: func(d any) string {
					data := id(d)
					if data.Tick < data.Lineage.BirthTick {
						return "-"
					}
					return fmt.Sprintf("%d ticks", data.Tick-data.Lineage.BirthTick)
				}},
				{Label: "Peak energy", Widget: WidgetText, Format: "%.1f", Getter: func(d any) float32 { return float32(id(d).Lineage.PeakEnergy) }},
			},
		},
	}
}
