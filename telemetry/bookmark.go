package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkBlackout        BookmarkType = "blackout"
	BookmarkLightingShift   BookmarkType = "lighting_shift"
	BookmarkExposureSettled BookmarkType = "exposure_settled"
	BookmarkRebuildSpike    BookmarkType = "rebuild_spike"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable lighting moments across windows.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	wasLit      bool
	wasAdapting bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkBlackout(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkExposureSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkLightingShift(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkRebuildSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
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

// checkBlackout fires when a lit board goes completely dark.
func (bd *BookmarkDetector) checkBlackout(stats WindowStats) *Bookmark {
	lit := stats.CellsLit > 0
	defer func() { bd.wasLit = lit }()

	if lit || !bd.wasLit {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkBlackout,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("All %d cells went dark", stats.Cells),
	}
}

// checkExposureSettled fires when exposure reaches its target after adapting.
func (bd *BookmarkDetector) checkExposureSettled(stats WindowStats) *Bookmark {
	if stats.ExposureTarget <= 0 || stats.ExposureMean <= 0 {
		return nil
	}
	off := math.Abs(stats.ExposureMean/stats.ExposureTarget - 1)
	adapting := off > 0.1
	defer func() { bd.wasAdapting = adapting }()

	if off > 0.01 || !bd.wasAdapting {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkExposureSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Exposure settled at %.3f (target %.3f)", stats.ExposureMean, stats.ExposureTarget),
	}
}

// checkLightingShift fires when mean lux doubles or halves against the rolling average.
func (bd *BookmarkDetector) checkLightingShift(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 2 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.LuxMean
	}
	avg := total / float64(len(history))
	if avg <= 0 || stats.LuxMean <= 0 {
		return nil
	}

	ratio := stats.LuxMean / avg
	if ratio < 2 && ratio > 0.5 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkLightingShift,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Mean lux %.3f is %.1fx average (%.3f)", stats.LuxMean, ratio, avg),
	}
}

// checkRebuildSpike fires when rebuilds take over three times their rolling average.
func (bd *BookmarkDetector) checkRebuildSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.LightingRebuilds == 0 {
		return nil
	}

	var total float64
	var n int
	for _, h := range history {
		if h.LightingRebuilds > 0 {
			total += h.RebuildAvgUS
			n++
		}
	}
	if n == 0 || total == 0 {
		return nil
	}

	avg := total / float64(n)
	if stats.RebuildAvgUS <= avg*3 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkRebuildSpike,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Rebuild took %.0fus, %.1fx average (%.0fus)", stats.RebuildAvgUS, stats.RebuildAvgUS/avg, avg),
	}
}
