package grid

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/drpcorg/rowbind/rowbind_errors"
)

type OpKind string

const (
	OpReloadData     OpKind = "reloadData"
	OpBegin          OpKind = "begin"
	OpEnd            OpKind = "end"
	OpDeleteSections OpKind = "deleteSections"
	OpInsertSections OpKind = "insertSections"
	OpReloadSections OpKind = "reloadSections"
	OpDeleteRows     OpKind = "deleteRows"
	OpInsertRows     OpKind = "insertRows"
	OpReloadRows     OpKind = "reloadRows"
)

type Op struct {
	Kind     OpKind
	Sections []int
	Paths    []IndexPath
	Anim     Animation
}

func (op Op) String() string {
	switch {
	case op.Sections != nil:
		return fmt.Sprintf("%s%v", op.Kind, op.Sections)
	case op.Paths != nil:
		return fmt.Sprintf("%s%v", op.Kind, op.Paths)
	}
	return string(op.Kind)
}

type batch struct {
	delSections []int
	insSections []int
	relSections []int
	delRows     []IndexPath
	insRows     []IndexPath
	relRows     []IndexPath
}

// Recorder is an in-memory Grid. It logs every call and checks each
// committed batch against its DataSource the way a table widget does:
// the post-update counts must equal the pre-update counts adjusted by the
// batch. A violation is recorded in Errors and the recorder resyncs,
// where a real widget would crash.
type Recorder struct {
	ds       DataSource
	attached bool
	rows     []int
	batch    *batch
	depth    int

	Ops    []Op
	Errors []error
}

func NewRecorder(ds DataSource) *Recorder {
	return &Recorder{ds: ds, attached: true}
}

func (r *Recorder) SetAttached(attached bool) {
	r.attached = attached
}

func (r *Recorder) Attached() bool {
	return r.attached
}

func (r *Recorder) NumberOfSections() int {
	return len(r.rows)
}

func (r *Recorder) NumberOfRows(section int) int {
	if section < 0 || section >= len(r.rows) {
		return 0
	}
	return r.rows[section]
}

func (r *Recorder) ReloadData() {
	r.Ops = append(r.Ops, Op{Kind: OpReloadData})
	r.requery()
}

func (r *Recorder) requery() {
	n := r.ds.NumberOfSections()
	rows := make([]int, n)
	for i := range rows {
		rows[i] = r.ds.NumberOfRows(i)
	}
	r.rows = rows
}

func (r *Recorder) BeginUpdates() {
	r.Ops = append(r.Ops, Op{Kind: OpBegin})
	if r.depth == 0 {
		r.batch = &batch{}
	}
	r.depth++
}

func (r *Recorder) EndUpdates() {
	r.Ops = append(r.Ops, Op{Kind: OpEnd})
	if r.depth == 0 {
		r.Errors = append(r.Errors, fmt.Errorf("%w: end without begin", rowbind_errors.ErrInconsistent))
		return
	}
	r.depth--
	if r.depth == 0 {
		b := r.batch
		r.batch = nil
		r.commit(b)
	}
}

func (r *Recorder) edit(op Op, apply func(b *batch)) {
	r.Ops = append(r.Ops, op)
	if r.batch != nil {
		apply(r.batch)
		return
	}
	b := &batch{}
	apply(b)
	r.commit(b)
}

func (r *Recorder) DeleteSections(sections []int, anim Animation) {
	r.edit(Op{Kind: OpDeleteSections, Sections: slices.Clone(sections), Anim: anim}, func(b *batch) {
		b.delSections = append(b.delSections, sections...)
	})
}

func (r *Recorder) InsertSections(sections []int, anim Animation) {
	r.edit(Op{Kind: OpInsertSections, Sections: slices.Clone(sections), Anim: anim}, func(b *batch) {
		b.insSections = append(b.insSections, sections...)
	})
}

func (r *Recorder) ReloadSections(sections []int, anim Animation) {
	r.edit(Op{Kind: OpReloadSections, Sections: slices.Clone(sections), Anim: anim}, func(b *batch) {
		b.relSections = append(b.relSections, sections...)
	})
}

func (r *Recorder) DeleteRows(paths []IndexPath, anim Animation) {
	r.edit(Op{Kind: OpDeleteRows, Paths: slices.Clone(paths), Anim: anim}, func(b *batch) {
		b.delRows = append(b.delRows, paths...)
	})
}

func (r *Recorder) InsertRows(paths []IndexPath, anim Animation) {
	r.edit(Op{Kind: OpInsertRows, Paths: slices.Clone(paths), Anim: anim}, func(b *batch) {
		b.insRows = append(b.insRows, paths...)
	})
}

func (r *Recorder) ReloadRows(paths []IndexPath, anim Animation) {
	r.edit(Op{Kind: OpReloadRows, Paths: slices.Clone(paths), Anim: anim}, func(b *batch) {
		b.relRows = append(b.relRows, paths...)
	})
}

type section struct {
	count int
	fresh bool
}

func (r *Recorder) commit(b *batch) {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{rowbind_errors.ErrInconsistent}, args...)...))
	}

	dels := make(map[int]bool, len(b.delSections))
	for _, s := range b.delSections {
		if s < 0 || s >= len(r.rows) {
			fail("delete section %d of %d", s, len(r.rows))
			continue
		}
		dels[s] = true
	}
	ins := slices.Clone(b.insSections)
	slices.Sort(ins)
	ins = slices.Compact(ins)

	want := r.ds.NumberOfSections()
	if got := len(r.rows) - len(dels) + len(ins); got != want {
		fail("number of sections after update (%d) must be %d + %d - %d = %d",
			want, len(r.rows), len(ins), len(dels), got)
		r.abort(errs)
		return
	}

	sections := make([]section, 0, want)
	for i, c := range r.rows {
		if !dels[i] {
			sections = append(sections, section{count: c})
		}
	}
	for _, s := range ins {
		if s < 0 || s > len(sections) {
			fail("insert section %d of %d", s, len(sections))
			r.abort(errs)
			return
		}
		sections = slices.Insert(sections, s, section{fresh: true})
	}
	for _, s := range b.relSections {
		if s < 0 || s >= len(sections) {
			fail("reload section %d of %d", s, len(sections))
			continue
		}
		sections[s].fresh = true
	}

	rowDel := make(map[int]int)
	rowIns := make(map[int]int)
	for _, ip := range b.delRows {
		if ip.Section < 0 || ip.Section >= len(sections) || ip.Row < 0 || ip.Row >= sections[ip.Section].count {
			fail("delete row %s", ip)
			continue
		}
		rowDel[ip.Section]++
	}
	for _, ip := range b.insRows {
		if ip.Section < 0 || ip.Section >= len(sections) {
			fail("insert row %s", ip)
			continue
		}
		rowIns[ip.Section]++
	}

	rows := make([]int, len(sections))
	for i, s := range sections {
		n := r.ds.NumberOfRows(i)
		rows[i] = n
		if s.fresh {
			continue
		}
		if got := s.count + rowIns[i] - rowDel[i]; got != n {
			fail("number of rows in section %d after update (%d) must be %d + %d - %d = %d",
				i, n, s.count, rowIns[i], rowDel[i], got)
		}
	}
	for _, ip := range b.insRows {
		if ip.Section >= 0 && ip.Section < len(rows) && (ip.Row < 0 || ip.Row >= rows[ip.Section]) {
			fail("insert row %s", ip)
		}
	}
	for _, ip := range b.relRows {
		if ip.Section < 0 || ip.Section >= len(rows) || ip.Row < 0 || ip.Row >= rows[ip.Section] {
			fail("reload row %s", ip)
		}
	}
	if len(errs) > 0 {
		r.abort(errs)
		return
	}
	r.rows = rows
}

func (r *Recorder) abort(errs []error) {
	r.Errors = append(r.Errors, errors.Join(errs...))
	r.requery()
}

func (r *Recorder) DequeueCell(kind string, ip IndexPath) Cell {
	return &TextCell{Kind: kind, Path: ip}
}

// Err returns every recorded inconsistency joined, nil if there were none.
func (r *Recorder) Err() error {
	return errors.Join(r.Errors...)
}

func (r *Recorder) Kinds() []OpKind {
	kinds := make([]OpKind, 0, len(r.Ops))
	for _, op := range r.Ops {
		kinds = append(kinds, op.Kind)
	}
	return kinds
}

// Take returns the logged ops and clears the log.
func (r *Recorder) Take() []Op {
	ops := r.Ops
	r.Ops = nil
	return ops
}

type TextCell struct {
	Kind string
	Path IndexPath
	Text string
}

func (c *TextCell) String() string {
	return c.Text
}

// WriteTo renders the rows the recorder believes it shows, asking the
// data source for titles and cells.
func (r *Recorder) WriteTo(w io.Writer) (n int64, err error) {
	write := func(format string, args ...any) {
		if err != nil {
			return
		}
		var k int
		k, err = fmt.Fprintf(w, format, args...)
		n += int64(k)
	}
	for s, count := range r.rows {
		if title, ok := r.ds.TitleForSection(s); ok {
			write("%s\n", title)
		}
		for row := 0; row < count; row++ {
			cell := r.ds.Cell(r, IndexPath{Section: s, Row: row})
			write("  %v\n", cell)
		}
	}
	return
}
