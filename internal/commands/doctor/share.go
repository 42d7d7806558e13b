package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/cofl/osd/internal/core/config"
	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/share"
)

// OpenFunc opens a backend for a discovered database.
type OpenFunc func(ctx context.Context, desc share.Descriptor) (osd.Conn, error)

// ShareCheck verifies that the configured share is reachable and that its
// database answers the lookup queries.
type ShareCheck struct {
	config *config.Config
	open   OpenFunc
}

// NewShareCheck creates a new share check.
func NewShareCheck(cfg *config.Config, open OpenFunc) *ShareCheck {
	return &ShareCheck{config: cfg, open: open}
}

func (c *ShareCheck) Name() string {
	return "Share"
}

func (c *ShareCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if c.config == nil || c.config.SharePath == "" {
		result.Items = append(result.Items, CheckItem{
			Label:  "Share path",
			Status: StatusWarn,
			Detail: "share_path not configured",
		})
		return result
	}

	root := c.config.SharePath
	if c.config.Database.Driver == "" {
		if _, err := os.Stat(root); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  "Share path",
				Status: StatusFail,
				Detail: err.Error(),
			})
			return result
		}
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "Share path",
		Status: StatusPass,
		Detail: root,
	})

	desc, err := share.Discover(root, c.config.Database)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Database",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "Database",
		Status: StatusPass,
		Detail: desc.String(),
	})

	conn, err := c.open(ctx, desc)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Connection",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}
	defer func() { _ = conn.Close() }()

	result.Items = append(result.Items, CheckItem{
		Label:  "Connection",
		Status: StatusPass,
	})

	queries := []struct {
		category osd.Category
		query    func(context.Context) ([]string, error)
	}{
		{osd.CategoryTaskSequence, conn.TaskSequenceIDs},
		{osd.CategoryTaskSequenceGroup, conn.TaskSequenceGroups},
		{osd.CategoryDriverGroup, conn.DriverGroups},
		{osd.CategoryManufacturer, conn.Manufacturers},
		{osd.CategoryModel, conn.Models},
	}
	for _, q := range queries {
		values, err := q.query(ctx)
		item := CheckItem{Label: string(q.category) + "s", Status: StatusPass}
		switch {
		case err != nil:
			item.Status = StatusFail
			item.Detail = err.Error()
		case len(values) == 0:
			item.Status = StatusWarn
			item.Detail = "none found"
		default:
			item.Detail = fmt.Sprintf("%d found", len(values))
		}
		result.Items = append(result.Items, item)
	}

	return result
}
