// Package config loads unification problems from YAML files.
//
// A file declares a small environment (universe parameters, constants,
// definitions, structures and free variables), the metavariables to solve
// for, search options, and one or more alternatives, each a conjunction of
// equations written in the syntax of package syntax:
//
//	options: {budget: 500, solutions: 2}
//	constants:
//	  - {name: Nat, type: Type}
//	  - {name: a, type: Nat}
//	  - {name: f, type: "Nat -> Nat"}
//	mvars:
//	  - {name: F, type: "Nat -> Nat"}
//	alternatives:
//	  - [{lhs: "?F a", rhs: "f a"}]
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default search limits applied to options left at zero.
const (
	DefaultBudget    = 1000
	DefaultSolutions = 1
)

// Options mirrors the generator options plus the limits of a run.
type Options struct {
	// Iteration defaults to true when omitted.
	Iteration   *bool  `yaml:"iteration"`
	Elimination bool   `yaml:"elimination"`
	Budget      int    `yaml:"budget" validate:"gte=1"`
	Solutions   int    `yaml:"solutions" validate:"gte=1"`
	Tag         string `yaml:"tag"`
	MaxDepth    int    `yaml:"max_depth" validate:"gte=0"`
}

// Decl declares a constant, free variable or metavariable of a given type.
type Decl struct {
	Name      string   `yaml:"name" validate:"required"`
	Type      string   `yaml:"type" validate:"required"`
	Universes []string `yaml:"universes"`
}

// Definition declares a constant that unfolds to Value.
type Definition struct {
	Name      string   `yaml:"name" validate:"required"`
	Type      string   `yaml:"type" validate:"required"`
	Value     string   `yaml:"value" validate:"required"`
	Universes []string `yaml:"universes"`
}

// Structure declares a structure type with constructor Name.mk. Params and
// Fields are binder telescopes such as "(A B : Type)". Level is the
// universe the structure lives in and defaults to 1.
type Structure struct {
	Name      string   `yaml:"name" validate:"required"`
	Params    string   `yaml:"params"`
	Fields    string   `yaml:"fields"`
	Level     string   `yaml:"level"`
	Universes []string `yaml:"universes"`
}

// Equation is one side-by-side pair of terms.
type Equation struct {
	Lhs string `yaml:"lhs" validate:"required"`
	Rhs string `yaml:"rhs" validate:"required"`
}

// File is the decoded form of a problem file.
type File struct {
	Options      Options      `yaml:"options"`
	Universes    []string     `yaml:"universes"`
	Constants    []Decl       `yaml:"constants" validate:"dive"`
	Definitions  []Definition `yaml:"definitions" validate:"dive"`
	Structures   []Structure  `yaml:"structures" validate:"dive"`
	Vars         []Decl       `yaml:"vars" validate:"dive"`
	MVars        []Decl       `yaml:"mvars" validate:"dive"`
	Alternatives [][]Equation `yaml:"alternatives" validate:"required,min=1,dive,min=1,dive"`
}

var validate = validator.New()

// Load reads and validates the problem file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a problem file, applies defaults and validates it.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse problem YAML: %w", err)
	}
	f.applyDefaults()
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid problem file: %w", err)
	}
	return &f, nil
}

func (f *File) applyDefaults() {
	if f.Options.Iteration == nil {
		on := true
		f.Options.Iteration = &on
	}
	if f.Options.Budget == 0 {
		f.Options.Budget = DefaultBudget
	}
	if f.Options.Solutions == 0 {
		f.Options.Solutions = DefaultSolutions
	}
	for i := range f.Structures {
		if f.Structures[i].Level == "" {
			f.Structures[i].Level = "1"
		}
	}
}
