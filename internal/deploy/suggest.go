package deploy

import (
	"github.com/sahilm/fuzzy"

	"github.com/cofl/osd/internal/core/osd"
)

// Suggest returns cached identifiers of category ranked against input. An
// empty input returns the cached list in backend order. limit <= 0 means no
// limit.
func (s *Service) Suggest(category osd.Category, input string, limit int) ([]string, error) {
	sess, err := s.holder.Require("suggest " + string(category))
	if err != nil {
		return nil, err
	}

	values := sess.Cache().Snapshot().Values(category)
	if input != "" {
		matches := fuzzy.Find(input, values)
		ranked := make([]string, len(matches))
		for i, m := range matches {
			ranked[i] = m.Str
		}
		values = ranked
	}

	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values, nil
}
