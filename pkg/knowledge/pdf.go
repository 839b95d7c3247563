package knowledge

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
)

// rowTolerance is the vertical distance within which glyphs belong to the same line.
const rowTolerance = 2.0

// paragraphGap is the multiple of the usual line spacing above which a blank line is emitted.
const paragraphGap = 1.6

// ExtractPages returns the text of every page of a PDF, one string per page. Lines are
// separated by a newline and paragraphs by a blank line.
func ExtractPages(data []byte) (pages []string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = goerr.New("malformed PDF", goerr.V("panic", fmt.Sprint(r)))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open PDF")
	}

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, LayoutText(p.Content().Text))
	}
	return pages, nil
}

// ReadPDF reads all of r and extracts its pages.
func ReadPDF(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read PDF")
	}
	return ExtractPages(data)
}

type textRow struct {
	y     float64
	texts []pdf.Text
}

// LayoutText rebuilds lines from positioned glyphs: glyphs are grouped into rows by baseline,
// rows are ordered top to bottom and glyphs left to right.
func LayoutText(texts []pdf.Text) string {
	var rows []*textRow
	for _, t := range texts {
		if t.S == "" {
			continue
		}

		placed := false
		for _, row := range rows {
			if math.Abs(row.y-t.Y) < rowTolerance {
				row.texts = append(row.texts, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, &textRow{y: t.Y, texts: []pdf.Text{t}})
		}
	}
	if len(rows) == 0 {
		return ""
	}

	// PDF y grows upwards
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	spacing := lineSpacing(rows)
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
			if spacing > 0 && rows[i-1].y-row.y > spacing*paragraphGap {
				b.WriteByte('\n')
			}
		}
		b.WriteString(row.line())
	}
	return b.String()
}

func (r *textRow) line() string {
	sort.SliceStable(r.texts, func(i, j int) bool { return r.texts[i].X < r.texts[j].X })

	var b strings.Builder
	var prev *pdf.Text
	for i := range r.texts {
		t := &r.texts[i]
		if prev != nil && prev.W > 0 && needsSpace(prev, t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prev = t
	}
	return strings.TrimSpace(b.String())
}

// needsSpace detects word gaps that the PDF encodes as glyph positioning instead of a space.
func needsSpace(prev, next *pdf.Text) bool {
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	return gap > prev.FontSize*0.2
}

// lineSpacing is the median distance between consecutive rows.
func lineSpacing(rows []*textRow) float64 {
	if len(rows) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		gaps = append(gaps, rows[i-1].y-rows[i].y)
	}
	sort.Float64s(gaps)
	return gaps[(len(gaps)-1)/2]
}
