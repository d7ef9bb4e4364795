package converters

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Table is a grid of cell text found on a PDF page. Rows[0] is the header.
type Table struct {
	Page int
	Rows [][]string
}

// glyph is one positioned character from a page's content stream.
type glyph struct {
	x, y, w, size float64
	s             string
}

// box is an axis-aligned rectangle, x0 <= x1 and y0 <= y1, in PDF user space
// (y grows upward).
type box struct {
	x0, y0, x1, y1 float64
}

type pageContent struct {
	number int
	glyphs []glyph
	boxes  []box
}

// Detection tolerances, in points.
const (
	ruleThickness = 2.0
	edgeTolerance = 2.0
	joinTolerance = 3.0
)

// ExtractTables finds tables on every page of the PDF at path. Ruled (lattice)
// tables are tried first; if the document has none, tables are inferred from
// text alignment instead.
func ExtractTables(path string) ([]Table, error) {
	pages, err := readPDFContent(path)
	if err != nil {
		return nil, err
	}

	var tables []Table
	for _, p := range pages {
		for _, rows := range latticeTables(p.glyphs, p.boxes) {
			tables = append(tables, Table{Page: p.number, Rows: rows})
		}
	}
	if len(tables) > 0 {
		return tables, nil
	}
	for _, p := range pages {
		for _, rows := range streamTables(p.glyphs) {
			tables = append(tables, Table{Page: p.number, Rows: rows})
		}
	}
	return tables, nil
}

// readPDFContent loads the text and rectangles of every page.
func readPDFContent(path string) (pages []pageContent, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		c := p.Content()
		pc := pageContent{number: i}
		for _, t := range c.Text {
			pc.glyphs = append(pc.glyphs, glyph{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
		}
		for _, rc := range c.Rect {
			pc.boxes = append(pc.boxes, normalizeBox(rc.Min.X, rc.Min.Y, rc.Max.X, rc.Max.Y))
		}
		pages = append(pages, pc)
	}
	return pages, nil
}

func normalizeBox(ax, ay, bx, by float64) box {
	return box{
		x0: math.Min(ax, bx), y0: math.Min(ay, by),
		x1: math.Max(ax, bx), y1: math.Max(ay, by),
	}
}

// segment is a horizontal or vertical ruling line.
type segment struct {
	vertical bool
	pos      float64 // x for vertical, y for horizontal
	from, to float64
}

func (s segment) bounds() box {
	if s.vertical {
		return box{s.pos, s.from, s.pos, s.to}
	}
	return box{s.from, s.pos, s.to, s.pos}
}

// rulings turns rectangles into ruling segments: thin rectangles are lines,
// others contribute their four edges.
func rulings(boxes []box) []segment {
	var segs []segment
	for _, b := range boxes {
		w, h := b.x1-b.x0, b.y1-b.y0
		switch {
		case w <= ruleThickness && h <= ruleThickness:
			continue
		case h <= ruleThickness:
			segs = append(segs, segment{pos: (b.y0 + b.y1) / 2, from: b.x0, to: b.x1})
		case w <= ruleThickness:
			segs = append(segs, segment{vertical: true, pos: (b.x0 + b.x1) / 2, from: b.y0, to: b.y1})
		default:
			segs = append(segs,
				segment{pos: b.y0, from: b.x0, to: b.x1},
				segment{pos: b.y1, from: b.x0, to: b.x1},
				segment{vertical: true, pos: b.x0, from: b.y0, to: b.y1},
				segment{vertical: true, pos: b.x1, from: b.y0, to: b.y1},
			)
		}
	}
	return segs
}

func touches(a, b box, tol float64) bool {
	return a.x0 <= b.x1+tol && b.x0 <= a.x1+tol && a.y0 <= b.y1+tol && b.y0 <= a.y1+tol
}

// groupSegments partitions segments into connected clusters, one per table.
func groupSegments(segs []segment) [][]segment {
	parent := make([]int, len(segs))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			if touches(segs[i].bounds(), segs[j].bounds(), joinTolerance) {
				parent[find(i)] = find(j)
			}
		}
	}

	groups := map[int][]segment{}
	var order []int
	for i, s := range segs {
		root := find(i)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], s)
	}
	out := make([][]segment, 0, len(order))
	for _, root := range order {
		out = append(out, groups[root])
	}
	return out
}

// cluster merges values closer than tol and returns the sorted cluster means.
func cluster(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	v := append([]float64(nil), values...)
	sort.Float64s(v)

	var out []float64
	sum, n := v[0], 1.0
	for _, x := range v[1:] {
		if x-sum/n <= tol {
			sum += x
			n++
			continue
		}
		out = append(out, sum/n)
		sum, n = x, 1
	}
	return append(out, sum/n)
}

// latticeTables reads tables drawn with ruling lines: every connected group of
// lines that forms at least a 2x2 grid is one table.
func latticeTables(glyphs []glyph, boxes []box) [][][]string {
	var tables [][][]string
	for _, group := range groupSegments(rulings(boxes)) {
		var xs, ys []float64
		for _, s := range group {
			if s.vertical {
				xs = append(xs, s.pos)
			} else {
				ys = append(ys, s.pos)
			}
		}
		xs = cluster(xs, edgeTolerance)
		ys = cluster(ys, edgeTolerance)
		if len(xs) < 3 || len(ys) < 3 {
			continue
		}
		// Rows run top to bottom.
		sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

		if rows := fillGrid(glyphs, xs, ys); rows != nil {
			tables = append(tables, rows)
		}
	}
	return tables
}

// fillGrid assigns glyphs to the cells bounded by xs (ascending) and ys
// (descending) and drops empty rows and columns. It returns nil when no cell
// has text.
func fillGrid(glyphs []glyph, xs, ys []float64) [][]string {
	nRows, nCols := len(ys)-1, len(xs)-1
	cells := make([][][]glyph, nRows)
	for i := range cells {
		cells[i] = make([][]glyph, nCols)
	}

	for _, g := range glyphs {
		cx := g.x + g.w/2
		cy := g.y + g.size*0.3
		col := sort.Search(len(xs), func(i int) bool { return xs[i] > cx }) - 1
		row := sort.Search(len(ys), func(i int) bool { return ys[i] < cy }) - 1
		if col < 0 || col >= nCols || row < 0 || row >= nRows {
			continue
		}
		cells[row][col] = append(cells[row][col], g)
	}

	text := make([][]string, nRows)
	usedCol := make([]bool, nCols)
	found := false
	for r := range cells {
		text[r] = make([]string, nCols)
		for c := range cells[r] {
			text[r][c] = joinGlyphs(cells[r][c])
			if text[r][c] != "" {
				usedCol[c] = true
				found = true
			}
		}
	}
	if !found {
		return nil
	}

	var out [][]string
	for _, row := range text {
		var kept []string
		blank := true
		for c, s := range row {
			if !usedCol[c] {
				continue
			}
			kept = append(kept, s)
			if s != "" {
				blank = false
			}
		}
		if !blank {
			out = append(out, kept)
		}
	}
	return out
}

// joinGlyphs concatenates glyphs in content order, inserting a space where the
// baseline changes or a visible gap separates two glyphs.
func joinGlyphs(gs []glyph) string {
	var sb strings.Builder
	for i, g := range gs {
		if i > 0 {
			prev := gs[i-1]
			size := math.Max(prev.size, 1)
			newLine := math.Abs(g.y-prev.y) > size*0.5
			gap := g.x-(prev.x+prev.w) > size*0.25 && prev.w > 0
			if newLine || gap {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.s)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// chunk is a run of glyphs on one line separated from its neighbours by a
// column-sized gap.
type chunk struct {
	x0, x1 float64
	glyphs []glyph
}

func (c chunk) text() string {
	return joinGlyphs(c.glyphs)
}

type textLine struct {
	y      float64
	chunks []chunk
}

// textLines groups glyphs into lines (top to bottom) and each line into chunks.
func textLines(glyphs []glyph) []textLine {
	gs := append([]glyph(nil), glyphs...)
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].y > gs[j].y })

	var lines [][]glyph
	for _, g := range gs {
		if n := len(lines); n > 0 {
			last := lines[n-1]
			if math.Abs(last[0].y-g.y) <= math.Max(g.size*0.5, 2) {
				lines[n-1] = append(last, g)
				continue
			}
		}
		lines = append(lines, []glyph{g})
	}

	out := make([]textLine, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].x < line[j].x })
		tl := textLine{y: line[0].y}
		for _, g := range line {
			end := g.x + g.w
			if n := len(tl.chunks); n > 0 {
				cur := &tl.chunks[n-1]
				if g.x-cur.x1 <= math.Max(g.size, 4) {
					cur.glyphs = append(cur.glyphs, g)
					cur.x1 = math.Max(cur.x1, end)
					continue
				}
			}
			if strings.TrimSpace(g.s) == "" {
				continue
			}
			tl.chunks = append(tl.chunks, chunk{x0: g.x, x1: end, glyphs: []glyph{g}})
		}
		if len(tl.chunks) > 0 {
			out = append(out, tl)
		}
	}
	return out
}

// streamTables infers unruled tables: a run of at least two consecutive lines
// that each split into two or more chunks, aligned on shared column starts.
func streamTables(glyphs []glyph) [][][]string {
	lines := textLines(glyphs)

	var tables [][][]string
	flush := func(run []textLine) {
		if len(run) < 2 {
			return
		}
		if rows := alignColumns(run); rows != nil {
			tables = append(tables, rows)
		}
	}

	var run []textLine
	for _, l := range lines {
		if len(l.chunks) >= 2 {
			run = append(run, l)
			continue
		}
		flush(run)
		run = nil
	}
	flush(run)
	return tables
}

// alignColumns clusters chunk start positions into columns and lays the run out
// as rows. Chunks that share a column are joined with a space.
func alignColumns(run []textLine) [][]string {
	var starts []float64
	size := 0.0
	for _, l := range run {
		for _, c := range l.chunks {
			starts = append(starts, c.x0)
			size = math.Max(size, c.glyphs[0].size)
		}
	}
	tol := math.Max(size*1.5, 6)
	cols := cluster(starts, tol)
	if len(cols) < 2 {
		return nil
	}

	rows := make([][]string, 0, len(run))
	for _, l := range run {
		row := make([]string, len(cols))
		for _, c := range l.chunks {
			col := nearest(cols, c.x0)
			if row[col] != "" {
				row[col] += " "
			}
			row[col] += c.text()
		}
		rows = append(rows, row)
	}
	return rows
}

func nearest(values []float64, x float64) int {
	best, dist := 0, math.Inf(1)
	for i, v := range values {
		if d := math.Abs(v - x); d < dist {
			best, dist = i, d
		}
	}
	return best
}
