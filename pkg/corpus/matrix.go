package corpus

// Matrix is an in-memory corpus built from rows of synonyms.
type Matrix struct {
	rows  [][]string
	words []string
}

// NewMatrix creates a corpus from rows of synonyms. Empty rows are skipped.
func NewMatrix(rows [][]string) *Matrix {
	m := &Matrix{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]string, len(row))
		copy(r, row)
		m.rows = append(m.rows, r)
		m.words = append(m.words, r...)
	}
	return m
}

// Words returns every synonym of every row in declaration order.
func (m *Matrix) Words() []string {
	words := make([]string, len(m.words))
	copy(words, m.words)
	return words
}

// Value returns the first synonym of the first row containing word.
func (m *Matrix) Value(word string, opts Options) string {
	normalized := Normalize(word, opts)
	for _, row := range m.rows {
		for _, synonym := range row {
			if Normalize(synonym, opts) == normalized {
				return row[0]
			}
		}
	}
	return word
}

// Rows returns a copy of the synonym rows.
func (m *Matrix) Rows() [][]string {
	rows := make([][]string, len(m.rows))
	for i, row := range m.rows {
		rows[i] = append([]string(nil), row...)
	}
	return rows
}

var _ Corpus = (*Matrix)(nil)
