package sqlstore

import (
	"context"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/share"
)

// Opener opens the database of the share named by an effective
// configuration.
type Opener struct {
	// Database overrides discovery from the share when Driver is set.
	Database config.Database
}

// Open implements osd.Opener.
func (o Opener) Open(ctx context.Context, cfg osd.Configuration) (osd.Conn, error) {
	desc, err := share.Discover(cfg.SharePath, o.Database)
	if err != nil {
		return nil, err
	}

	b, err := Open(ctx, desc)
	if err != nil {
		return nil, err
	}
	return b, nil
}
