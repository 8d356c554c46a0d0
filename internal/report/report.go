// Package report maps a predicted class index to report text.
//
// The only implementation is a static table. A generative backend would sit
// behind the same Generator interface.
package report

// Fallback is returned for indices the table does not cover.
const Fallback = "Unclassified medical report"

// DefaultTexts are index-aligned with the classifier's classes.
var DefaultTexts = []string{
	"Detailed normal chest X-ray analysis...",
	"Comprehensive pneumonia evaluation...",
	"Extensive COVID-19 diagnostic insights...",
}

// Generator produces the report for a predicted class index.
type Generator interface {
	Report(index int) string
	// Len reports how many class indices the generator covers.
	Len() int
}

// Table is a Generator backed by a fixed list of strings.
type Table struct {
	texts []string
}

// NewTable copies texts into a Table. A nil or empty slice yields DefaultTexts.
func NewTable(texts []string) *Table {
	if len(texts) == 0 {
		texts = DefaultTexts
	}
	return &Table{texts: append([]string(nil), texts...)}
}

func (t *Table) Report(index int) string {
	if index < 0 || index >= len(t.texts) {
		return Fallback
	}
	return t.texts[index]
}

func (t *Table) Len() int { return len(t.texts) }
