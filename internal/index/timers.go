package index

import (
	"context"
	"time"
)

// timerTick is how often the periodic loop checks rule deadlines.
// Intervals are configured in minutes, so half a minute is plenty.
const timerTick = 30 * time.Second

// StartPeriodic runs the per-rule rescan timers until ctx is
// cancelled. A rule with ScanIntervalMinutes == 0 never rescans on a
// timer. All triggers route through Update, so the single-scan
// invariant holds.
func (ix *Index) StartPeriodic(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(timerTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ix.anyRuleDue() {
					ix.Update()
				}
			}
		}
	}()
}

func (ix *Index) anyRuleDue() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.scanning {
		return false
	}
	now := time.Now()
	for _, rule := range ix.rules {
		if rule.ScanIntervalMinutes <= 0 {
			continue
		}
		interval := time.Duration(rule.ScanIntervalMinutes) * time.Minute
		if rule.lastScan.IsZero() || now.Sub(rule.lastScan) >= interval {
			return true
		}
	}
	return false
}
