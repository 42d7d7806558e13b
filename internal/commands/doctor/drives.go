package doctor

import (
	"context"
	"os"

	"github.com/cofl/osd/internal/core/drive"
)

// DrivesCheck verifies that the drive registry is readable and that every
// registered share path exists.
type DrivesCheck struct {
	store drive.Store
}

// NewDrivesCheck creates a new drive registry check.
func NewDrivesCheck(store drive.Store) *DrivesCheck {
	return &DrivesCheck{store: store}
}

func (c *DrivesCheck) Name() string {
	return "Drives"
}

func (c *DrivesCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	drives, err := c.store.List(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Registry",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	if len(drives) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "Registry",
			Status: StatusPass,
			Detail: "no drives registered",
		})
		return result
	}

	for _, d := range drives {
		item := CheckItem{Label: d.Name, Status: StatusPass, Detail: d.Path}
		if _, err := os.Stat(d.Path); err != nil {
			item.Status = StatusWarn
			item.Detail = d.Path + ": unreachable"
		}
		result.Items = append(result.Items, item)
	}

	return result
}
