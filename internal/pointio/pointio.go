// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package pointio reads and writes point sets as YAML or JSON documents.
package pointio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	YAML = "yaml"
	JSON = "json"
)

// unitTol bounds how far a decoded point may be from the unit sphere.
const unitTol = 1e-6

var ErrFormat = errors.New("pointio: unsupported format")

// Coords is a point as [x, y, z]. It is written to YAML in flow style.
type Coords []float64

// MarshalYAML implements yaml.Marshaler.
func (c Coords) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, x := range c {
		n.Content = append(n.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.FormatFloat(x, 'g', -1, 64),
		})
	}
	return n, nil
}

// Document is a serialized point set.
type Document struct {
	Seed       int64    `yaml:"seed" json:"seed"`
	Iterations int      `yaml:"iterations" json:"iterations"`
	Points     []Coords `yaml:"points" json:"points"`
}

// NewDocument builds a document from points.
func NewDocument(seed int64, iterations int, points s2.PointVector) *Document {
	doc := &Document{
		Seed:       seed,
		Iterations: iterations,
		Points:     make([]Coords, len(points)),
	}
	for i, p := range points {
		doc.Points[i] = Coords{p.X, p.Y, p.Z}
	}
	return doc
}

// PointVector converts the document back to points. Every entry must have
// three finite coordinates and lie on the unit sphere.
func (d *Document) PointVector() (s2.PointVector, error) {
	ps := make(s2.PointVector, len(d.Points))
	for i, c := range d.Points {
		if len(c) != 3 {
			return nil, fmt.Errorf("point %d: want 3 coordinates, got %d", i, len(c))
		}
		for _, x := range c {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, fmt.Errorf("point %d: non-finite coordinate %v", i, x)
			}
		}
		p := s2.Point{Vector: r3.Vector{X: c[0], Y: c[1], Z: c[2]}}
		if math.Abs(p.Norm()-1) > unitTol {
			return nil, fmt.Errorf("point %d: norm %v is not on the unit sphere", i, p.Norm())
		}
		ps[i] = p
	}
	return ps, nil
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, path)
	}
}

// Write encodes doc to w.
func Write(w io.Writer, format string, doc *Document) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

// Read decodes a document from r.
func Read(r io.Reader, format string) (*Document, error) {
	doc := &Document{}
	switch format {
	case YAML:
		if err := yaml.NewDecoder(r).Decode(doc); err != nil {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case JSON:
		if err := json.NewDecoder(r).Decode(doc); err != nil {
			return nil, fmt.Errorf("failed to decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	return doc, nil
}

// ReadFile decodes the document at path, picking the format by extension.
func ReadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, format)
}
