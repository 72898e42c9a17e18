// Package probe implements the verification harness that exercises a
// running nabla service end to end: it submits differentiation tasks,
// polls for results, and compares them against expected values.
package probe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultTolerance = 1e-9

// Case is a single verification case in a suite.
type Case struct {
	Name      string      `yaml:"name"`
	Exprs     []string    `yaml:"exprs"`
	Point     []float64   `yaml:"point"`
	Mode      string      `yaml:"mode"`
	Primal    []float64   `yaml:"primal"`
	Jacobian  [][]float64 `yaml:"jacobian"`
	Tolerance float64     `yaml:"tolerance"`
	Checks    []Check     `yaml:"checks"`
}

// Check asserts a JSONPath expression against the result document.
type Check struct {
	Path   string `yaml:"path"`
	Equals any    `yaml:"equals"`
}

// Suite is a named collection of verification cases.
type Suite struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// LoadSuite reads and validates a YAML suite file.
func LoadSuite(path string) (Suite, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read suite %s: %w", path, err)
	}

	var s Suite
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Suite{}, fmt.Errorf("parse suite %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return Suite{}, fmt.Errorf("suite %s: %w", path, err)
	}
	return s, nil
}

func (s Suite) validate() error {
	if len(s.Cases) == 0 {
		return ErrEmptySuite
	}
	for i, c := range s.Cases {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: case %d has no name", ErrInvalidSuite, i)
		}
		if len(c.Exprs) == 0 {
			return fmt.Errorf("%w: case %q has no exprs", ErrInvalidSuite, c.Name)
		}
		if len(c.Point) == 0 {
			return fmt.Errorf("%w: case %q has no point", ErrInvalidSuite, c.Name)
		}
	}
	return nil
}

// tolerance returns the comparison tolerance for a case.
func (c Case) tolerance() float64 {
	if c.Tolerance > 0 {
		return c.Tolerance
	}
	return defaultTolerance
}

// DefaultSuite covers the elementary functions and both modes, for
// probing a service without an external suite file.
func DefaultSuite() Suite {
	return Suite{
		Name: "built-in derivative checks",
		Cases: []Case{
			{
				Name:     "linear forward",
				Exprs:    []string{"4*x + 3"},
				Point:    []float64{2},
				Mode:     "forward",
				Primal:   []float64{11},
				Jacobian: [][]float64{{4}},
			},
			{
				Name:     "rational forward",
				Exprs:    []string{"(5*x + 50)/(2*x^2)"},
				Point:    []float64{5},
				Mode:     "forward",
				Primal:   []float64{1.5},
				Jacobian: [][]float64{{-0.5}},
			},
			{
				Name:     "trig reverse",
				Exprs:    []string{"sin(x0)", "cos(x1)"},
				Point:    []float64{1, 2},
				Mode:     "reverse",
				Primal:   []float64{0.8414709848078965, -0.4161468365471424},
				Jacobian: [][]float64{{0.5403023058681398, 0}, {0, -0.9092974268256817}},
			},
			{
				Name:     "exp sum reverse",
				Exprs:    []string{"5*exp(x0) + 2*exp(x1) + 3*exp(x2)"},
				Point:    []float64{0, 1, 2},
				Mode:     "reverse",
				Primal:   []float64{32.60373195371004},
				Jacobian: [][]float64{{5, 5.43656365691809, 22.16716829679195}},
			},
			{
				Name:     "log and sqrt forward",
				Exprs:    []string{"log(x, 2) + sqrt(x)"},
				Point:    []float64{4},
				Mode:     "forward",
				Primal:   []float64{4},
				Jacobian: [][]float64{{0.6106737602222409}},
			},
		},
	}
}
