package sheet

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"sheets/internal/calc"
	"sheets/internal/grid"
	"sheets/internal/storage"
)

var ErrNoStore = errors.New("sheet has no store")

// Sheet holds the raw text of every non-empty cell and keeps formula cells
// evaluated. Keys are visited in insertion order; a loaded sheet starts in
// row-major order. A Sheet is not safe for concurrent use.
type Sheet struct {
	id    string
	store storage.Store
	cells grid.Snapshot
	order []string
	log   *slog.Logger
}

// New returns an empty sheet. store may be nil for a sheet that is never saved.
func New(id string, store storage.Store) *Sheet {
	return &Sheet{
		id:    id,
		store: store,
		cells: grid.Snapshot{},
		log:   slog.Default(),
	}
}

// Open loads the sheet id from store.
func Open(ctx context.Context, id string, store storage.Store) (*Sheet, error) {
	s := New(id, store)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sheet) SetLogger(l *slog.Logger) {
	if l != nil {
		s.log = l
	}
}

func (s *Sheet) ID() string { return s.id }

func (s *Sheet) Len() int { return len(s.cells) }

// Get returns the stored text of a cell: raw text, or the last computed
// value of a formula.
func (s *Sheet) Get(a grid.Address) string {
	return s.cells.Text(a)
}

// Snapshot returns a copy of the cells.
func (s *Sheet) Snapshot() grid.Snapshot {
	return s.cells.Clone()
}

// Keys returns the cell keys in sweep order.
func (s *Sheet) Keys() []string {
	return slices.Clone(s.order)
}

// Set stores text at a (removing the cell when text is empty), then runs
// Recompute. It returns the keys whose stored text changed: the edited cell
// first, then the others in sweep order.
func (s *Sheet) Set(a grid.Address, text string) []string {
	key := a.Key()
	prev, existed := s.cells[key]

	switch {
	case text == "":
		if existed {
			delete(s.cells, key)
			s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
		}
	case existed:
		s.cells[key] = text
	default:
		s.cells[key] = text
		s.order = append(s.order, key)
	}

	changed := slices.DeleteFunc(s.Recompute(), func(k string) bool { return k == key })
	if now, ok := s.cells[key]; now != prev || ok != existed {
		changed = append([]string{key}, changed...)
	}
	s.log.Debug("cell set", "sheet", s.id, "cell", a.String(), "changed", len(changed))
	return changed
}

// Recompute makes one pass over the cells in sweep order and replaces every
// formula with its value, evaluated against the cells as they stand at that
// point of the pass. Formula text is not kept.
func (s *Sheet) Recompute() []string {
	var changed []string
	formulas := 0
	for _, key := range s.order {
		text := s.cells[key]
		if !calc.IsFormula(text) {
			continue
		}
		formulas++
		value := calc.Evaluate(text, s.cells).String()
		if value != text {
			s.cells[key] = value
			changed = append(changed, key)
		}
	}
	if formulas > 0 {
		s.log.Debug("recompute", "sheet", s.id, "formulas", formulas, "changed", len(changed))
	}
	return changed
}

// Replace swaps in new cells, in row-major order, without recomputing.
func (s *Sheet) Replace(cells grid.Snapshot) {
	s.cells = cells.Clone()
	s.order = rowMajor(s.cells)
}

// Save writes the cells to the store under the sheet id.
func (s *Sheet) Save(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.store.Save(ctx, s.id, s.cells); err != nil {
		s.log.Error("save sheet", "sheet", s.id, "error", err)
		return fmt.Errorf("save sheet %s: %w", s.id, err)
	}
	return nil
}

// SaveAs renames the sheet and saves it.
func (s *Sheet) SaveAs(ctx context.Context, id string) error {
	s.id = id
	return s.Save(ctx)
}

// Reload replaces the cells with the stored copy.
func (s *Sheet) Reload(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	cells, err := s.store.Load(ctx, s.id)
	if err != nil {
		return fmt.Errorf("load sheet %s: %w", s.id, err)
	}
	s.Replace(cells)
	return nil
}

// rowMajor orders cell keys by row then column; keys that are not
// "row-col" go last, alphabetically.
func rowMajor(cells grid.Snapshot) []string {
	keys := make([]string, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		pa, errA := grid.ParseKey(a)
		pb, errB := grid.ParseKey(b)
		switch {
		case errA != nil && errB != nil:
			return cmp.Compare(a, b)
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		}
		if c := cmp.Compare(pa.Row, pb.Row); c != 0 {
			return c
		}
		return cmp.Compare(pa.Col, pb.Col)
	})
	return keys
}
