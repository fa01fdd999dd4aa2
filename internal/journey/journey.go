// Package journey loads authored journey data into route configuration.
package journey

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"journey-tracker/internal/route"
)

//go:embed route.yaml
var defaultRoute []byte

// Journey is a named route definition as authored in YAML.
type Journey struct {
	Name   string
	Unit   string
	Config route.Config
}

type file struct {
	Name          string         `yaml:"name"`
	Unit          string         `yaml:"unit"`
	TotalDistance float64        `yaml:"totalDistance"`
	StepsPerUnit  float64        `yaml:"stepsPerUnit"`
	Waypoints     []waypointFile `yaml:"waypoints"`
}

type waypointFile struct {
	Name        string  `yaml:"name"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Distance    float64 `yaml:"distance"`
	Description string  `yaml:"description"`
}

// Default returns the built-in Hobbiton to Mount Doom journey.
func Default() (Journey, error) {
	return Parse(defaultRoute)
}

// Load reads a journey file from disk. An empty path loads the default.
func Load(path string) (Journey, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Journey{}, fmt.Errorf("read journey %s: %w", path, err)
	}
	j, err := Parse(data)
	if err != nil {
		return Journey{}, fmt.Errorf("journey %s: %w", path, err)
	}
	return j, nil
}

// Parse decodes YAML journey data. Unknown keys are rejected so typos in
// authored files surface at startup.
func Parse(data []byte) (Journey, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Journey{}, &route.ConfigurationError{Field: "journey", Reason: "empty document"}
		}
		return Journey{}, fmt.Errorf("decode journey: %w", err)
	}

	j := Journey{
		Name: f.Name,
		Unit: f.Unit,
		Config: route.Config{
			TotalDistance: f.TotalDistance,
			StepsPerUnit:  f.StepsPerUnit,
			Waypoints:     make([]route.Waypoint, 0, len(f.Waypoints)),
		},
	}
	if j.Unit == "" {
		j.Unit = "miles"
	}
	for _, w := range f.Waypoints {
		j.Config.Waypoints = append(j.Config.Waypoints, route.Waypoint{
			Name:               w.Name,
			Position:           route.Point{X: w.X, Y: w.Y},
			CumulativeDistance: w.Distance,
			Description:        w.Description,
		})
	}
	return j, nil
}

// Route validates the journey into a route.Route.
func (j Journey) Route() (*route.Route, error) {
	return route.New(j.Config)
}
