package osd

import (
	"context"
	"time"
)

// RefreshEvery refreshes the current session's cache on every tick until ctx
// is done. Ticks with no session installed are skipped. Failures are logged;
// the previously published snapshot stays readable.
func (h *Holder) RefreshEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess := h.Current()
			if sess == nil {
				continue
			}
			if err := sess.RefreshCache(ctx); err != nil {
				if IsKind(err, KindNotConnected) {
					continue // disconnected between Current and Do
				}
				h.log.Warn().Err(err).Str("share", sess.SharePath()).Msg("background cache refresh failed")
				continue
			}
			h.log.Debug().Uint64("version", sess.Cache().Snapshot().Version).Msg("cache refreshed")
		}
	}
}
