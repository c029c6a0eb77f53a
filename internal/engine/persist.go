package engine

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vk/gridcell/internal/value"
)

// Save writes every cell with a non-empty definition as one "id:definition"
// line. Placeholder cells carry no definition and are not written; a later
// Load re-materializes them from the formulas that reference them.
func (e *Engine) Save(w io.Writer) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bw := bufio.NewWriter(w)
	for _, id := range e.sortedIDs() {
		c := e.cells[id]
		if c.definition == "" {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%s:%s\n", id, c.definition); err != nil {
			return fmt.Errorf("writing cell %q: %w", id, err)
		}
	}
	return bw.Flush()
}

// Load reads "id:definition" lines and merges them into the store: loaded
// ids overwrite, others survive. The whole input is validated before any
// cell changes, so a bad line leaves the store untouched. Load only stages
// definitions; call Recalculate to evaluate them.
func (e *Engine) Load(r io.Reader) error {
	staged, err := parseLines(r)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.commit(staged)
	return nil
}

// Replace is Load with replace semantics: on success the store contains
// exactly the cells read from r. On failure the store is untouched.
func (e *Engine) Replace(r io.Reader) error {
	staged, err := parseLines(r)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cells = make(map[string]*cell)
	e.graph.Reset()
	e.commit(staged)
	return nil
}

// commit installs validated definitions. Callers hold the write lock.
func (e *Engine) commit(staged map[string]string) {
	for id, def := range staged {
		c, ok := e.cells[id]
		if !ok {
			c = &cell{id: id}
			e.cells[id] = c
		}
		c.definition = def
		c.setValue(value.Empty())

		deps := dependenciesOf(def)
		for _, dep := range deps {
			if _, ok := e.cells[dep]; !ok {
				e.cells[dep] = &cell{id: dep}
			}
		}
		e.graph.SetDependencies(id, deps)
	}
	e.graph.Rebuild()

	e.logger.Debug("Cells loaded.", "count", len(staged))
}

func parseLines(r io.Reader) (map[string]string, error) {
	staged := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			return nil, fmt.Errorf("line %d: %w: no colon separator", lineNo, ErrMalformedLine)
		}
		id := strings.TrimSpace(line[:colon])
		if err := validateID(id); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		staged[id] = line[colon+1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cells: %w", err)
	}
	return staged, nil
}

func (e *Engine) sortedIDs() []string {
	ids := make([]string, 0, len(e.cells))
	for id := range e.cells {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
