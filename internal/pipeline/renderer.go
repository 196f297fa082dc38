package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/hanprep/internal/model"
)

// Renderer writes annotation results
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSONL writes one JSON document per line
func (r *Renderer) RenderJSONL(w io.Writer, docs []model.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range docs {
		if err := enc.Encode(&docs[i]); err != nil {
			return fmt.Errorf("encode document %d: %w", i, err)
		}
	}
	return nil
}

// RenderCoNLL writes documents in CoNLL-U layout. The entity tag goes to
// MISC as NE=<tag>; role tuples become an "# srl" comment line.
func (r *Renderer) RenderCoNLL(w io.Writer, docs []model.Document) error {
	bw := bufio.NewWriter(w)

	for _, doc := range docs {
		fmt.Fprintf(bw, "# text = %s\n", doc.Sentence)
		if len(doc.Roles) > 0 {
			fmt.Fprintf(bw, "# srl = %s\n", formatRoles(doc.Roles))
		}

		for i, token := range doc.Tokens {
			head, rel := "_", "_"
			if i < len(doc.Arcs) {
				head = strconv.Itoa(doc.Arcs[i].Head)
				rel = doc.Arcs[i].Relation
			}
			fmt.Fprintf(bw, "%d\t%s\t_\t_\t%s\t_\t%s\t%s\t_\t%s\n",
				i+1, token, at(doc.Tags, i), head, rel, misc(doc.Entities, i))
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}

func formatRoles(roles []model.RoleTuple) string {
	parts := make([]string, len(roles))
	for i, role := range roles {
		parts[i] = fmt.Sprintf("%d:%s:%d-%d", role.Predicate, role.Role, role.Start, role.End)
	}
	return strings.Join(parts, " ")
}

func at(values []string, i int) string {
	if i < len(values) && values[i] != "" {
		return values[i]
	}
	return "_"
}

func misc(entities []string, i int) string {
	tag := at(entities, i)
	if tag == "_" || tag == "O" {
		return "_"
	}
	return "NE=" + tag
}

// RenderSummary prints a one-screen summary of a cleaning run
func (r *Renderer) RenderSummary(w io.Writer, files int, stats CleanStats) {
	fmt.Fprintf(w, "\nCleaned %d file(s)\n", files)
	fmt.Fprintf(w, "  Read:       %d\n", stats.Input)
	fmt.Fprintf(w, "  Kept:       %d\n", stats.Output)
	fmt.Fprintf(w, "  Blank:      %d\n", stats.Blank)
	fmt.Fprintf(w, "  Compound:   %d\n", stats.Complex)
	fmt.Fprintf(w, "  Length:     %d\n", stats.Length)
	fmt.Fprintf(w, "  Duplicates: %d\n", stats.Duplicate)
}
