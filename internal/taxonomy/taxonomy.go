// Package taxonomy holds the read-only framework tree
// (functions, categories, subcategories) that assessments are scored against.
package taxonomy

import (
	"crypto/sha256"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinName is the identifier of the embedded NIST CSF 2.0 taxonomy.
const BuiltinName = "nist-csf-2.0"

// Function is a top-level framework function such as GV or PR.
type Function struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Categories  []Category `yaml:"categories" json:"categories"`
}

// Category groups subcategories within a function.
type Category struct {
	ID            string        `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	Description   string        `yaml:"description,omitempty" json:"description,omitempty"`
	Subcategories []Subcategory `yaml:"subcategories" json:"subcategories"`
}

// Subcategory is the atomic assessable unit.
type Subcategory struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description" json:"description"`
	Remediation string `yaml:"remediation,omitempty" json:"remediation,omitempty"`
}

// Ref locates a subcategory within the tree.
type Ref struct {
	Function    Function
	Category    Category
	Subcategory Subcategory
}

// Taxonomy is a validated framework tree. It is never modified after New.
type Taxonomy struct {
	Framework string
	Version   string
	Source    string
	Hash      string

	functions []Function
	index     map[string]position
}

type position struct {
	fn, cat, sub int
}

type document struct {
	Framework string     `yaml:"framework" json:"framework"`
	Version   string     `yaml:"version" json:"version"`
	Functions []Function `yaml:"functions" json:"functions"`
}

// New validates the tree and builds the subcategory index.
// Ids must be non-empty and unique at every level; subcategory ids are
// unique across the whole taxonomy.
func New(functions []Function) (*Taxonomy, error) {
	t := &Taxonomy{
		functions: cloneFunctions(functions),
		index:     make(map[string]position),
	}
	fnIDs := make(map[string]bool)
	catIDs := make(map[string]bool)
	for i, fn := range t.functions {
		if fn.ID == "" {
			return nil, fmt.Errorf("taxonomy.New: functions[%d]: empty id", i)
		}
		if fnIDs[fn.ID] {
			return nil, fmt.Errorf("taxonomy.New: duplicate function id %q", fn.ID)
		}
		fnIDs[fn.ID] = true
		for j, cat := range fn.Categories {
			if cat.ID == "" {
				return nil, fmt.Errorf("taxonomy.New: %s.categories[%d]: empty id", fn.ID, j)
			}
			if catIDs[cat.ID] {
				return nil, fmt.Errorf("taxonomy.New: duplicate category id %q", cat.ID)
			}
			catIDs[cat.ID] = true
			for k, sub := range cat.Subcategories {
				if sub.ID == "" {
					return nil, fmt.Errorf("taxonomy.New: %s.subcategories[%d]: empty id", cat.ID, k)
				}
				if _, dup := t.index[sub.ID]; dup {
					return nil, fmt.Errorf("taxonomy.New: duplicate subcategory id %q", sub.ID)
				}
				t.index[sub.ID] = position{i, j, k}
			}
		}
	}
	return t, nil
}

// Load reads a YAML or JSON taxonomy file and computes its SHA-256 hash.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy.Load: %w", err)
	}
	t, err := parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("taxonomy.Load: %s: %w", path, err)
	}
	t.Source = path
	return t, nil
}

// Builtin returns the embedded NIST CSF 2.0 taxonomy.
func Builtin() (*Taxonomy, error) {
	data, err := builtinFS.ReadFile("builtin/" + BuiltinName + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("taxonomy.Builtin: %w", err)
	}
	t, err := parse(data, ".yaml")
	if err != nil {
		return nil, fmt.Errorf("taxonomy.Builtin: %w", err)
	}
	t.Source = "builtin:" + BuiltinName
	return t, nil
}

func parse(data []byte, ext string) (*Taxonomy, error) {
	var doc document
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported taxonomy format %q", ext)
	}
	t, err := New(doc.Functions)
	if err != nil {
		return nil, err
	}
	t.Framework = doc.Framework
	t.Version = doc.Version
	h := sha256.Sum256(data)
	t.Hash = fmt.Sprintf("sha256:%x", h)
	return t, nil
}

// Lookup finds the function, category and subcategory for a subcategory id.
func (t *Taxonomy) Lookup(subcategoryID string) (Ref, bool) {
	pos, ok := t.index[subcategoryID]
	if !ok {
		return Ref{}, false
	}
	fn := t.functions[pos.fn]
	cat := fn.Categories[pos.cat]
	return Ref{
		Function:    Function{ID: fn.ID, Name: fn.Name, Description: fn.Description},
		Category:    Category{ID: cat.ID, Name: cat.Name, Description: cat.Description},
		Subcategory: cat.Subcategories[pos.sub],
	}, true
}

// Has reports whether the subcategory id exists.
func (t *Taxonomy) Has(subcategoryID string) bool {
	_, ok := t.index[subcategoryID]
	return ok
}

// Functions returns a deep copy of the tree in canonical order.
func (t *Taxonomy) Functions() []Function {
	return cloneFunctions(t.functions)
}

// FunctionIDs returns function ids in canonical order.
func (t *Taxonomy) FunctionIDs() []string {
	ids := make([]string, len(t.functions))
	for i, fn := range t.functions {
		ids[i] = fn.ID
	}
	return ids
}

// SubcategoryCount returns the number of assessable subcategories.
func (t *Taxonomy) SubcategoryCount() int {
	return len(t.index)
}

// Walk visits every subcategory in traversal order. The Function and
// Category values passed to fn carry no children.
func (t *Taxonomy) Walk(fn func(f Function, c Category, s Subcategory)) {
	for _, f := range t.functions {
		head := Function{ID: f.ID, Name: f.Name, Description: f.Description}
		for _, c := range f.Categories {
			chead := Category{ID: c.ID, Name: c.Name, Description: c.Description}
			for _, s := range c.Subcategories {
				fn(head, chead, s)
			}
		}
	}
}

func cloneFunctions(in []Function) []Function {
	if in == nil {
		return nil
	}
	out := make([]Function, len(in))
	for i, f := range in {
		out[i] = f
		out[i].Categories = make([]Category, len(f.Categories))
		for j, c := range f.Categories {
			out[i].Categories[j] = c
			out[i].Categories[j].Subcategories = append([]Subcategory(nil), c.Subcategories...)
		}
	}
	return out
}
