// Package pdg provides particle-property lookup by PDG code.
//
// The primary generator only needs to know whether a species exists and its
// rest mass; DB is the boundary to whatever property service backs that.
// Table is the file-backed implementation shipped with the module.
package pdg

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed particles.yaml
var defaultTable []byte

// Well-known codes the generator treats specially.
const (
	K0      = 311
	K0Short = 310
	K0Long  = 130
)

// Particle holds the properties of one species.
type Particle struct {
	PDG    int     `yaml:"pdg"`
	Name   string  `yaml:"name"`
	Mass   float64 `yaml:"mass"`
	Charge float64 `yaml:"charge"`
}

// DB looks up particle properties.
type DB interface {
	Lookup(code int) (Particle, bool)
}

// Table is an in-memory DB.
type Table struct {
	byCode map[int]Particle
}

type tableFile struct {
	Particles []Particle `yaml:"particles"`
}

// Parse decodes a particle table. Unknown fields and duplicate codes are rejected.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse particle table: %w", err)
	}

	t := &Table{byCode: make(map[int]Particle, len(f.Particles))}
	for _, p := range f.Particles {
		if _, dup := t.byCode[p.PDG]; dup {
			return nil, fmt.Errorf("duplicate pdg code %d in particle table", p.PDG)
		}
		if p.Mass < 0 {
			return nil, fmt.Errorf("negative mass for pdg code %d", p.PDG)
		}
		t.byCode[p.PDG] = p
	}
	return t, nil
}

// Load reads a particle table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read particle table: %w", err)
	}
	return Parse(data)
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Parse(defaultTable)
})

// Default returns the embedded particle table.
func Default() *Table {
	t, err := loadDefault()
	if err != nil {
		// The embedded table is part of the build; failing to parse it is a programming error.
		panic(err)
	}
	return t
}

// Lookup implements DB.
func (t *Table) Lookup(code int) (Particle, bool) {
	p, ok := t.byCode[code]
	return p, ok
}

// Len returns the number of species in the table.
func (t *Table) Len() int {
	return len(t.byCode)
}
