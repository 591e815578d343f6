package grid

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drpcorg/rowbind/rowbind_errors"
)

type staticSource struct {
	rows []int
}

func (s *staticSource) NumberOfSections() int { return len(s.rows) }

func (s *staticSource) NumberOfRows(section int) int { return s.rows[section] }

func (s *staticSource) Cell(g Grid, ip IndexPath) Cell {
	cell := g.DequeueCell("Cell", ip).(*TextCell)
	cell.Text = fmt.Sprintf("r%d.%d", ip.Section, ip.Row)
	return cell
}

func (s *staticSource) TitleForSection(section int) (string, bool) {
	return fmt.Sprintf("s%d", section), section == 0
}

func TestRecorder_Batch(t *testing.T) {
	ds := &staticSource{rows: []int{2, 1}}
	r := NewRecorder(ds)
	r.ReloadData()

	ds.rows = []int{3, 4, 1}
	r.BeginUpdates()
	r.InsertSections([]int{1}, Fade)
	r.InsertRows([]IndexPath{{Section: 0, Row: 0}}, Top)
	r.EndUpdates()
	require.NoError(t, r.Err())
	assert.Equal(t, 3, r.NumberOfSections())
	assert.Equal(t, 4, r.NumberOfRows(1))

	assert.Equal(t, []OpKind{OpReloadData, OpBegin, OpInsertSections, OpInsertRows, OpEnd}, r.Kinds())
	assert.Equal(t, "insertSections[1]", r.Ops[2].String())
	assert.Equal(t, "insertRows[[0, 0]]", r.Ops[3].String())
}

func TestRecorder_SectionCountMismatch(t *testing.T) {
	ds := &staticSource{rows: []int{2}}
	r := NewRecorder(ds)
	r.ReloadData()

	ds.rows = []int{2, 2}
	r.BeginUpdates()
	r.DeleteSections(nil, Automatic)
	r.EndUpdates()
	assert.ErrorIs(t, r.Err(), rowbind_errors.ErrInconsistent)
	assert.Contains(t, r.Err().Error(), "number of sections after update (2) must be 1 + 0 - 0 = 1")
	// resynced after the failure
	assert.Equal(t, 2, r.NumberOfSections())
}

func TestRecorder_RowCountMismatch(t *testing.T) {
	ds := &staticSource{rows: []int{2, 2}}
	r := NewRecorder(ds)
	r.ReloadData()

	ds.rows = []int{2, 3}
	r.DeleteRows([]IndexPath{{Section: 1, Row: 0}}, None)
	assert.ErrorIs(t, r.Err(), rowbind_errors.ErrInconsistent)
	assert.Equal(t, 3, r.NumberOfRows(1))
}

func TestRecorder_ReloadedSectionIsFresh(t *testing.T) {
	ds := &staticSource{rows: []int{2, 2}}
	r := NewRecorder(ds)
	r.ReloadData()

	ds.rows = []int{5, 2}
	r.ReloadSections([]int{0}, Automatic)
	require.NoError(t, r.Err())
	assert.Equal(t, 5, r.NumberOfRows(0))
}

func TestRecorder_DeletedSectionsUseOldIndices(t *testing.T) {
	ds := &staticSource{rows: []int{1, 2, 3}}
	r := NewRecorder(ds)
	r.ReloadData()

	ds.rows = []int{1, 7, 3}
	r.BeginUpdates()
	r.DeleteSections([]int{1}, Automatic)
	r.InsertSections([]int{1}, Automatic)
	r.InsertRows([]IndexPath{{Section: 2, Row: 3}}, Automatic)
	r.EndUpdates()
	assert.Error(t, r.Err())

	ds.rows = []int{1, 7, 4}
	r.Errors = nil
	r.ReloadData()
	ds.rows = []int{1, 7, 3, 1}
	r.BeginUpdates()
	r.BeginUpdates()
	r.InsertSections([]int{3}, Automatic)
	r.EndUpdates()
	r.DeleteRows([]IndexPath{{Section: 2, Row: 0}}, Automatic)
	r.EndUpdates()
	require.NoError(t, r.Err())
	assert.Equal(t, 4, r.NumberOfSections())
}

func TestRecorder_EndWithoutBegin(t *testing.T) {
	r := NewRecorder(&staticSource{})
	r.EndUpdates()
	assert.ErrorIs(t, r.Err(), rowbind_errors.ErrInconsistent)
}

func TestRecorder_WriteTo(t *testing.T) {
	r := NewRecorder(&staticSource{rows: []int{2, 1}})
	r.ReloadData()
	var sb strings.Builder
	n, err := r.WriteTo(&sb)
	require.NoError(t, err)
	assert.EqualValues(t, sb.Len(), n)
	assert.Equal(t, "s0\n  r0.0\n  r0.1\n  r1.0\n", sb.String())
	assert.Len(t, r.Take(), 1)
	assert.Empty(t, r.Ops)
}

func TestPaths(t *testing.T) {
	assert.Empty(t, Paths(3, nil))
	assert.Equal(t, []IndexPath{{Section: 3, Row: 1}, {Section: 3, Row: 4}}, Paths(3, []int{1, 4}))
	assert.Equal(t, "fade", Fade.String())
}
