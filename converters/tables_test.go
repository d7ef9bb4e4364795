package converters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// word lays out s one glyph per rune starting at x on baseline y.
func word(x, y float64, s string) []glyph {
	const size = 10.0
	var out []glyph
	for _, r := range s {
		out = append(out, glyph{x: x, y: y, w: size * 0.5, size: size, s: string(r)})
		x += size * 0.5
	}
	return out
}

func gridBoxes(xs, ys []float64) []box {
	var out []box
	for r := 0; r+1 < len(ys); r++ {
		for c := 0; c+1 < len(xs); c++ {
			out = append(out, normalizeBox(xs[c], ys[r], xs[c+1], ys[r+1]))
		}
	}
	return out
}

func TestLatticeTables(t *testing.T) {
	xs := []float64{50, 150, 250, 350}
	ys := []float64{700, 680, 660, 640}
	data := [][]string{
		{"Name", "Age", "City"},
		{"Alice", "30", "Paris"},
		{"Bob", "25", "New York"},
	}

	var glyphs []glyph
	for r, row := range data {
		for c, cell := range row {
			glyphs = append(glyphs, word(xs[c]+4, ys[r]-14, cell)...)
		}
	}
	glyphs = append(glyphs, word(50, 760, "Quarterly figures")...)

	tables := latticeTables(glyphs, gridBoxes(xs, ys))
	require.Len(t, tables, 1)
	assert.Equal(t, data, tables[0])
}

func TestLatticeTablesRuledLines(t *testing.T) {
	// Same grid drawn with thin line rectangles instead of cell boxes.
	var boxes []box
	for _, y := range []float64{700, 680, 660} {
		boxes = append(boxes, normalizeBox(50, y-0.25, 250, y+0.25))
	}
	for _, x := range []float64{50, 150, 250} {
		boxes = append(boxes, normalizeBox(x-0.25, 660, x+0.25, 700))
	}
	glyphs := append(word(54, 686, "key"), word(154, 686, "value")...)
	glyphs = append(glyphs, word(54, 666, "a")...)
	glyphs = append(glyphs, word(154, 666, "1")...)

	tables := latticeTables(glyphs, boxes)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{{"key", "value"}, {"a", "1"}}, tables[0])
}

func TestLatticeTablesSeparateGrids(t *testing.T) {
	top := gridBoxes([]float64{50, 150, 250}, []float64{700, 680, 660})
	bottom := gridBoxes([]float64{50, 150, 250}, []float64{400, 380, 360})

	glyphs := append(word(54, 686, "A"), word(154, 666, "B")...)
	glyphs = append(glyphs, word(54, 386, "C")...)
	glyphs = append(glyphs, word(154, 366, "D")...)

	tables := latticeTables(glyphs, append(top, bottom...))
	require.Len(t, tables, 2)
	assert.Equal(t, [][]string{{"A", ""}, {"", "B"}}, tables[0])
	assert.Equal(t, [][]string{{"C", ""}, {"", "D"}}, tables[1])
}

func TestLatticeTablesIgnoresFramesAndEmptyGrids(t *testing.T) {
	frame := []box{normalizeBox(20, 20, 570, 800)}
	assert.Empty(t, latticeTables(word(50, 400, "just a frame"), frame))

	empty := gridBoxes([]float64{50, 150, 250}, []float64{700, 680, 660})
	assert.Empty(t, latticeTables(word(50, 400, "outside"), empty))
}

func TestStreamTables(t *testing.T) {
	var glyphs []glyph
	glyphs = append(glyphs, word(50, 760, "Monthly report for the north region")...)
	rows := [][]string{
		{"Month", "Units", "Revenue"},
		{"January", "12", "1,200"},
		{"February", "9", "900"},
	}
	for i, row := range rows {
		y := 700 - float64(i)*14
		glyphs = append(glyphs, word(50, y, row[0])...)
		glyphs = append(glyphs, word(200, y, row[1])...)
		glyphs = append(glyphs, word(320, y, row[2])...)
	}
	glyphs = append(glyphs, word(50, 600, "Figures are provisional.")...)

	tables := streamTables(glyphs)
	require.Len(t, tables, 1)
	assert.Equal(t, rows, tables[0])
}

func TestStreamTablesMissingCell(t *testing.T) {
	var glyphs []glyph
	glyphs = append(glyphs, word(50, 700, "Item")...)
	glyphs = append(glyphs, word(200, 700, "Qty")...)
	glyphs = append(glyphs, word(320, 700, "Note")...)
	glyphs = append(glyphs, word(50, 686, "Bolts")...)
	glyphs = append(glyphs, word(320, 686, "boxed")...)

	tables := streamTables(glyphs)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{{"Item", "Qty", "Note"}, {"Bolts", "", "boxed"}}, tables[0])
}

func TestStreamTablesProse(t *testing.T) {
	var glyphs []glyph
	for i, line := range []string{
		"This document has no tables at all.",
		"It is a few lines of running text",
		"set in a single column.",
	} {
		glyphs = append(glyphs, word(72, 700-float64(i)*14, line)...)
	}
	assert.Empty(t, streamTables(glyphs))
}

func TestJoinGlyphsZeroWidth(t *testing.T) {
	// Some fonts report no widths; glyphs then share the run's start position.
	gs := []glyph{
		{x: 10, y: 10, size: 10, s: "N"},
		{x: 10, y: 10, size: 10, s: "e"},
		{x: 10, y: 10, size: 10, s: "w"},
		{x: 10, y: 10, size: 10, s: " "},
		{x: 10, y: 10, size: 10, s: "Y"},
	}
	assert.Equal(t, "New Y", joinGlyphs(gs))
}

func TestCluster(t *testing.T) {
	assert.Nil(t, cluster(nil, 2))
	assert.Equal(t, []float64{10, 50}, cluster([]float64{50, 9, 11, 10}, 2))
}
