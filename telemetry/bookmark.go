package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkBreedingBreakthrough BookmarkType = "breeding_breakthrough"
	BookmarkPopulationCrash      BookmarkType = "population_crash"
	BookmarkExtinction           BookmarkType = "extinction"
	BookmarkStablePopulation     BookmarkType = "stable_population"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        uint64       `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPeak         int // peak population in recent history
	stableWindowsCount int // consecutive windows with a stable population
	extinct            bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable population detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Breeding breakthrough: successes > 2x rolling average
		if b := bd.checkBreedingBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Population crash: dropped >30% from recent peak
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable population: low variance over 5+ windows
		if b := bd.checkStablePopulation(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Population > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population died out after %d deaths in window", stats.Deaths),
	}
}

func (bd *BookmarkDetector) checkBreedingBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.BreedSuccesses
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	current := float64(stats.BreedSuccesses)
	if current > avg*2.0 && stats.BreedSuccesses >= 3 {
		return &Bookmark{
			Type:        BookmarkBreedingBreakthrough,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d offspring is %.1fx average (%.2f)", stats.BreedSuccesses, current/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if dropPercent > 0.30 && stats.Population < bd.recentPeak-5 {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStablePopulation(stats WindowStats) *Bookmark {
	if stats.Population < 5 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Check variance in recent windows
	var sum float64
	for _, h := range history[len(history)-4:] {
		sum += float64(h.Population)
	}
	mean := sum / 4

	var variance float64
	for _, h := range history[len(history)-4:] {
		d := float64(h.Population) - mean
		variance += d * d
	}
	variance /= 4

	if mean > 0 && variance/(mean*mean) < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStablePopulation,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable population of %d over 5+ windows", stats.Population),
		}
	}

	return nil
}
