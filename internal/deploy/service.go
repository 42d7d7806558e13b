// Package deploy implements the record commands that run on top of a
// connected share: task sequence, make/model and computer lookups and
// creation.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/cofl/osd/internal/core/osd"
	"github.com/cofl/osd/internal/core/record"
	"github.com/cofl/osd/internal/core/validate"
	"github.com/cofl/osd/pkg/nametmpl"
	"github.com/cofl/osd/pkg/randid"
)

// suffixLength is the length of the random name suffix used when a new
// computer has neither asset tag nor serial number.
const suffixLength = 6

// Service runs record operations against the holder's current session.
type Service struct {
	holder *osd.Holder
	log    zerolog.Logger
}

// New creates a new Service.
func New(holder *osd.Holder, log zerolog.Logger) *Service {
	return &Service{holder: holder, log: log}
}

// withStore runs the session guard for op and then fn with exclusive use of
// the backend.
func (s *Service) withStore(ctx context.Context, op string, fn func(ctx context.Context, sess *osd.Session, store record.Store) error) error {
	sess, err := s.holder.Require(op)
	if err != nil {
		return err
	}

	return sess.Do(ctx, func(ctx context.Context, conn osd.Conn) error {
		store, ok := conn.(record.Store)
		if !ok {
			return fmt.Errorf("%s: backend does not support record queries", op)
		}
		return fn(ctx, sess, store)
	})
}

// GetTaskSequence returns a task sequence by ID.
func (s *Service) GetTaskSequence(ctx context.Context, id string) (record.TaskSequence, error) {
	var ts record.TaskSequence

	err := s.withStore(ctx, "get task sequence", func(ctx context.Context, sess *osd.Session, store record.Store) error {
		var err error
		ts, err = store.TaskSequence(ctx, id)
		if errors.Is(err, record.ErrNotFound) {
			return osd.NotFound(osd.KindTaskSequenceNotFound, sess.SharePath(), id)
		}
		return err
	})

	return ts, err
}

// ListTaskSequences lists task sequences in group (all groups when empty)
// whose IDs match the glob pattern (all when empty).
func (s *Service) ListTaskSequences(ctx context.Context, group, pattern string) ([]record.TaskSequence, error) {
	var out []record.TaskSequence
	err := s.withStore(ctx, "list task sequences", func(ctx context.Context, _ *osd.Session, store record.Store) error {
		if err := checkPattern(pattern); err != nil {
			return err
		}

		all, err := store.TaskSequences(ctx, group)
		if err != nil {
			return fmt.Errorf("list task sequences: %w", err)
		}
		for _, ts := range all {
			if matches(pattern, ts.ID) {
				out = append(out, ts)
			}
		}
		return nil
	})

	return out, err
}

// ListDriverGroups returns the cached driver group names matching pattern.
func (s *Service) ListDriverGroups(pattern string) ([]string, error) {
	sess, err := s.holder.Require("list driver groups")
	if err != nil {
		return nil, err
	}
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}

	var out []string
	for _, g := range sess.Cache().Snapshot().DriverGroups {
		if matches(pattern, g) {
			out = append(out, g)
		}
	}
	return out, nil
}

// GetMakeModel returns a make/model entry.
func (s *Service) GetMakeModel(ctx context.Context, manufacturer, model string) (record.MakeModel, error) {
	var mm record.MakeModel

	err := s.withStore(ctx, "get make/model", func(ctx context.Context, sess *osd.Session, store record.Store) error {
		var err error
		mm, err = store.MakeModel(ctx, manufacturer, model)
		if errors.Is(err, record.ErrNotFound) {
			key := record.MakeModel{Make: manufacturer, Model: model}.Key()
			return osd.NotFound(osd.KindMakeModelNotFound, sess.SharePath(), key)
		}
		return err
	})

	return mm, err
}

// ListMakeModels lists make/model entries whose "make/model" key matches
// pattern.
func (s *Service) ListMakeModels(ctx context.Context, pattern string) ([]record.MakeModel, error) {
	var out []record.MakeModel
	err := s.withStore(ctx, "list make/models", func(ctx context.Context, _ *osd.Session, store record.Store) error {
		if err := checkPattern(pattern); err != nil {
			return err
		}

		all, err := store.MakeModels(ctx)
		if err != nil {
			return fmt.Errorf("list make/models: %w", err)
		}
		for _, mm := range all {
			if matches(pattern, mm.Key()) {
				out = append(out, mm)
			}
		}
		return nil
	})

	return out, err
}

// CreateMakeModel adds a make/model entry and refreshes the lookup cache so
// the new manufacturer and model are suggested immediately.
func (s *Service) CreateMakeModel(ctx context.Context, mm record.MakeModel) (record.MakeModel, error) {
	var created record.MakeModel
	err := s.withStore(ctx, "create make/model", func(ctx context.Context, sess *osd.Session, store record.Store) error {
		if err := validate.Required(mm.Make); err != nil {
			return fmt.Errorf("make %w", err)
		}
		if err := validate.Required(mm.Model); err != nil {
			return fmt.Errorf("model %w", err)
		}
		if mm.DriverGroup != "" && !slices.Contains(sess.Cache().Snapshot().DriverGroups, mm.DriverGroup) {
			return fmt.Errorf("unknown driver group %q", mm.DriverGroup)
		}

		_, err := store.MakeModel(ctx, mm.Make, mm.Model)
		switch {
		case err == nil:
			return fmt.Errorf("make/model %s already exists", mm.Key())
		case !errors.Is(err, record.ErrNotFound):
			return err
		}

		created, err = store.CreateMakeModel(ctx, mm)
		if err != nil {
			return fmt.Errorf("create make/model: %w", err)
		}
		return nil
	})
	if err != nil {
		return record.MakeModel{}, err
	}

	s.log.Info().Int64("id", created.ID).Str("make", created.Make).Str("model", created.Model).Msg("make/model created")
	s.refreshAfterWrite(ctx)
	return created, nil
}

// GetComputer returns a computer by ID.
func (s *Service) GetComputer(ctx context.Context, id int64) (record.Computer, error) {
	var c record.Computer

	err := s.withStore(ctx, "get computer", func(ctx context.Context, sess *osd.Session, store record.Store) error {
		var err error
		c, err = store.Computer(ctx, id)
		if errors.Is(err, record.ErrNotFound) {
			return osd.NotFound(osd.KindComputerNotFound, sess.SharePath(), strconv.FormatInt(id, 10))
		}
		return err
	})

	return c, err
}

// FindComputer returns the computer matching any identifier in q.
func (s *Service) FindComputer(ctx context.Context, q record.ComputerQuery) (record.Computer, error) {
	var c record.Computer
	err := s.withStore(ctx, "find computer", func(ctx context.Context, sess *osd.Session, store record.Store) error {
		if q.IsEmpty() {
			return fmt.Errorf("find computer: at least one of serial, mac, asset tag or uuid is required")
		}
		q, err := normalizeQuery(q)
		if err != nil {
			return err
		}

		c, err = store.FindComputer(ctx, q)
		if errors.Is(err, record.ErrNotFound) {
			return osd.NotFound(osd.KindComputerNotFound, sess.SharePath(), q.String())
		}
		return err
	})

	return c, err
}

// NewComputer holds the input for CreateComputer. Empty Name is generated
// from the session's computer name template; empty OU uses the session's
// default OU.
type NewComputer struct {
	Name           string
	AssetTag       string
	SerialNumber   string
	MACAddress     string
	UUID           string
	TaskSequenceID string
	OU             string
}

func (n NewComputer) query() record.ComputerQuery {
	return record.ComputerQuery{
		AssetTag:     n.AssetTag,
		SerialNumber: n.SerialNumber,
		MACAddress:   n.MACAddress,
		UUID:         n.UUID,
	}
}

// CreateComputer adds a computer record.
func (s *Service) CreateComputer(ctx context.Context, in NewComputer) (record.Computer, error) {
	var created record.Computer
	err := s.withStore(ctx, "create computer", func(ctx context.Context, sess *osd.Session, store record.Store) error {
		q := in.query()
		if q.IsEmpty() {
			return fmt.Errorf("create computer: at least one of serial, mac, asset tag or uuid is required")
		}
		q, err := normalizeQuery(q)
		if err != nil {
			return err
		}

		name, err := computerName(sess.ComputerNameTemplate(), in)
		if err != nil {
			return err
		}

		if in.TaskSequenceID != "" {
			if _, err := store.TaskSequence(ctx, in.TaskSequenceID); err != nil {
				if errors.Is(err, record.ErrNotFound) {
					return osd.NotFound(osd.KindTaskSequenceNotFound, sess.SharePath(), in.TaskSequenceID)
				}
				return err
			}
		}

		existing, err := store.FindComputer(ctx, q)
		switch {
		case err == nil:
			return fmt.Errorf("computer %s already exists with ID %d", q.String(), existing.ID)
		case !errors.Is(err, record.ErrNotFound):
			return err
		}

		ou := in.OU
		if ou == "" {
			ou = sess.Config().DefaultOU
		}

		created, err = store.CreateComputer(ctx, record.Computer{
			Name:           name,
			AssetTag:       q.AssetTag,
			SerialNumber:   q.SerialNumber,
			MACAddress:     q.MACAddress,
			UUID:           q.UUID,
			TaskSequenceID: in.TaskSequenceID,
			OU:             ou,
		})
		if err != nil {
			return fmt.Errorf("create computer: %w", err)
		}
		return nil
	})
	if err != nil {
		return record.Computer{}, err
	}

	s.log.Info().Int64("id", created.ID).Str("name", created.Name).Msg("computer created")
	return created, nil
}

// computerName returns the explicit name or renders the template with the
// asset tag, serial number or a random suffix.
func computerName(tmpl string, in NewComputer) (string, error) {
	name := in.Name
	if name == "" {
		if tmpl == "" {
			return "", fmt.Errorf("no computer name template configured; a name is required")
		}

		suffix := in.AssetTag
		if suffix == "" {
			suffix = in.SerialNumber
		}
		if suffix == "" {
			suffix = randid.Generate(suffixLength)
		}

		var err error
		name, err = nametmpl.Render(tmpl, suffix)
		if err != nil {
			return "", fmt.Errorf("computer name: %w", err)
		}
	}

	if err := validate.ComputerName(name); err != nil {
		return "", fmt.Errorf("computer name: %w", err)
	}
	return name, nil
}

func normalizeQuery(q record.ComputerQuery) (record.ComputerQuery, error) {
	if q.MACAddress != "" {
		mac, err := validate.MACAddress(q.MACAddress)
		if err != nil {
			return q, err
		}
		q.MACAddress = mac
	}
	return q, nil
}

// refreshAfterWrite refreshes the cache after a write. A failure leaves the
// previous snapshot in place and is only logged.
func (s *Service) refreshAfterWrite(ctx context.Context) {
	sess := s.holder.Current()
	if sess == nil {
		return
	}
	if err := sess.RefreshCache(ctx); err != nil {
		s.log.Warn().Err(err).Msg("cache refresh after write failed")
	}
}

func checkPattern(pattern string) error {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid match pattern %q", pattern)
	}
	return nil
}

func matches(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, value)
	return err == nil && ok
}
