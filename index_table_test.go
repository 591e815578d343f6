package rowbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tableOf(n int) (*SectionIndexTable[string, string], []*RowContainer[string, string]) {
	t := NewSectionIndexTable[string, string]()
	var cs []*RowContainer[string, string]
	for i := 0; i < n; i++ {
		c := &RowContainer[string, string]{Model: string(rune('A' + i)), active: true}
		t.Put(i, c)
		cs = append(cs, c)
	}
	return t, cs
}

func models(t *SectionIndexTable[string, string]) (out []string) {
	t.Each(func(section int, c *RowContainer[string, string]) {
		out = append(out, c.Model)
	})
	return
}

func TestSectionIndexTable_Renumbering(t *testing.T) {
	table, cs := tableOf(4)

	assert.Same(t, cs[1], table.Remove(1))
	table.Shift([]int{1}, -1)
	assert.Equal(t, []int{0, 1, 2}, table.Indices())
	assert.Equal(t, []string{"A", "C", "D"}, models(table))
	assert.Equal(t, 1, cs[2].Section)
	assert.Equal(t, 2, cs[3].Section)

	table.Shift([]int{1}, +1)
	assert.Equal(t, []int{0, 2, 3}, table.Indices())
	assert.Equal(t, []string{"A", "C", "D"}, models(table))
	for _, section := range table.Indices() {
		c, ok := table.Get(section)
		assert.True(t, ok)
		assert.Equal(t, section, c.Section)
	}
	_, ok := table.Get(1)
	assert.False(t, ok)
}

func TestSectionIndexTable_MultiShift(t *testing.T) {
	table, cs := tableOf(5)
	table.Remove(1)
	table.Remove(3)
	table.Shift([]int{1, 3}, -1)
	assert.Equal(t, []string{"A", "C", "E"}, models(table))
	assert.Equal(t, []int{0, 1, 2}, table.Indices())

	table.Shift([]int{0, 2}, +1)
	assert.Equal(t, []int{1, 3, 4}, table.Indices())
	assert.Equal(t, 1, cs[0].Section)
	assert.Equal(t, 3, cs[2].Section)
	assert.Equal(t, 4, cs[4].Section)
}

func TestSectionIndexTable_Reset(t *testing.T) {
	table, cs := tableOf(3)
	all := table.Reset()
	assert.Equal(t, cs, all)
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Remove(0))
	table.Shift(nil, 1)
	assert.Empty(t, table.Indices())
}
