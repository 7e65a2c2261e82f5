package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one timed section of a simulation step.
type Phase int

// Phases of a step, in tick order.
const (
	PhaseApply Phase = iota
	PhasePhysics
	PhasePrune
	PhaseBreed
	PhaseRender
	PhaseTelemetry

	NumPhases
)

var phaseNames = [NumPhases]string{"apply", "physics", "prune", "breed", "render", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= NumPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases returns every phase in tick order.
func Phases() []Phase {
	out := make([]Phase, NumPhases)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

// tickSample is one tick's total and per-phase durations.
type tickSample struct {
	total  time.Duration
	phases [NumPhases]time.Duration
}

// PerfCollector keeps per-phase timing over the last windowSize ticks.
// Sums are maintained incrementally as samples enter and leave the ring.
type PerfCollector struct {
	ring  []tickSample
	next  int
	count int

	sumTotal  time.Duration
	sumPhases [NumPhases]time.Duration

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]tickSample, windowSize)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = tickSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and opens phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase >= 0 && p.phase < NumPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick records the current tick, evicting the oldest once the window is full.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)

	if p.count == len(p.ring) {
		old := p.ring[p.next]
		p.sumTotal -= old.total
		for i := range p.sumPhases {
			p.sumPhases[i] -= old.phases[i]
		}
	} else {
		p.count++
	}

	p.ring[p.next] = p.cur
	p.sumTotal += p.cur.total
	for i, d := range p.cur.phases {
		p.sumPhases[i] += d
	}
	p.next = (p.next + 1) % len(p.ring)
}

// RecordFrame marks a displayed frame. Only the graphical loop calls it.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats is the windowed timing summary.
type PerfStats struct {
	Ticks           int
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // share of the average tick, 0..100

	FPS float64 // 0 when no frames were recorded
}

// Stats summarises the current window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	s.Ticks = p.count
	n := time.Duration(p.count)
	s.AvgTickDuration = p.sumTotal / n
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}

	for i := 0; i < p.count; i++ {
		d := p.ring[i].total
		if i == 0 || d < s.MinTickDuration {
			s.MinTickDuration = d
		}
		s.MaxTickDuration = max(s.MaxTickDuration, d)
	}

	for i, sum := range p.sumPhases {
		s.PhaseAvg[i] = sum / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[i] = 100 * float64(s.PhaseAvg[i]) / float64(s.AvgTickDuration)
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, ph := range Phases() {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the summary as one "perf" line.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    uint64  `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	ApplyPct     float64 `csv:"apply_pct"`
	PhysicsPct   float64 `csv:"physics_pct"`
	PrunePct     float64 `csv:"prune_pct"`
	BreedPct     float64 `csv:"breed_pct"`
	RenderPct    float64 `csv:"render_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd uint64) PerfStatsCSV {
	pct := s.PhasePct
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		ApplyPct:     pct[PhaseApply],
		PhysicsPct:   pct[PhasePhysics],
		PrunePct:     pct[PhasePrune],
		BreedPct:     pct[PhaseBreed],
		RenderPct:    pct[PhaseRender],
		TelemetryPct: pct[PhaseTelemetry],
	}
}
