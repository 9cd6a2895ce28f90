package output

import (
	"bytes"
	"strings"
	"text/tabwriter"
)

// TableWriter writes kubectl-style aligned columns.
type TableWriter struct {
	buf     bytes.Buffer
	w       *tabwriter.Writer
	hasData bool
}

// NewTableWriter creates a TableWriter with 3 spaces of padding between columns.
func NewTableWriter() *TableWriter {
	t := &TableWriter{}
	t.w = tabwriter.NewWriter(&t.buf, 0, 0, 3, ' ', 0)
	return t
}

// Header writes the header row.
func (t *TableWriter) Header(columns ...string) {
	t.write(columns)
}

// Row writes a data row.
func (t *TableWriter) Row(values ...string) {
	t.write(values)
}

// write emits one line. Filter literals may hold tabs or newlines, which
// would break column alignment, so they are replaced with spaces.
func (t *TableWriter) write(cells []string) {
	t.hasData = true
	clean := make([]string, len(cells))
	for i, c := range cells {
		clean[i] = cellReplacer.Replace(c)
	}
	_, _ = t.w.Write([]byte(strings.Join(clean, "\t") + "\n"))
}

var cellReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// String flushes the writer and returns the table without a trailing newline.
// Returns empty string if nothing was written.
func (t *TableWriter) String() string {
	if !t.hasData {
		return ""
	}
	_ = t.w.Flush()
	return strings.TrimSuffix(t.buf.String(), "\n")
}
