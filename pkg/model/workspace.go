package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Object is a single EnergyPlus input object.
type Object struct {
	Type   string   `json:"type"`
	Fields []string `json:"fields"`
}

// Workspace is the EnergyPlus-native form of a model.
type Workspace struct {
	Objects []Object
}

// ObjectsOfType returns the objects whose type matches (case-insensitive).
func (w *Workspace) ObjectsOfType(t string) []Object {
	var out []Object
	for _, o := range w.Objects {
		if strings.EqualFold(o.Type, t) {
			out = append(out, o)
		}
	}
	return out
}

// Add appends an object.
func (w *Workspace) Add(o Object) {
	w.Objects = append(w.Objects, o)
}

// WriteIDF renders the workspace in IDF syntax.
func (w *Workspace) WriteIDF(out io.Writer) error {
	bw := bufio.NewWriter(out)
	for _, o := range w.Objects {
		if len(o.Fields) == 0 {
			fmt.Fprintf(bw, "%s;\n\n", o.Type)
			continue
		}
		fmt.Fprintf(bw, "%s,\n", o.Type)
		for i, f := range o.Fields {
			sep := ","
			if i == len(o.Fields)-1 {
				sep = ";"
			}
			fmt.Fprintf(bw, "  %s%s\n", f, sep)
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// SaveIDF writes the workspace to path.
func (w *Workspace) SaveIDF(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("model: create %s: %w", path, err)
	}
	defer f.Close()
	if err := w.WriteIDF(f); err != nil {
		return fmt.Errorf("model: write %s: %w", path, err)
	}
	return f.Close()
}

// ParseIDF reads IDF text. Comments after '!' are dropped.
func ParseIDF(r io.Reader) (*Workspace, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "!"); i >= 0 {
			line = line[:i]
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("model: read idf: %w", err)
	}
	ws := &Workspace{}
	for _, stmt := range strings.Split(b.String(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		parts := strings.Split(stmt, ",")
		obj := Object{Type: strings.TrimSpace(parts[0])}
		for _, p := range parts[1:] {
			obj.Fields = append(obj.Fields, strings.TrimSpace(p))
		}
		ws.Objects = append(ws.Objects, obj)
	}
	return ws, nil
}

// LoadIDF reads a workspace from an IDF file.
func LoadIDF(path string) (*Workspace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseIDF(f)
}
