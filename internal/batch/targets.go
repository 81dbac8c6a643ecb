package batch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"worlds-collide/internal/mathutil"
	"worlds-collide/internal/obstacle"
)

// DefaultBodyRadius is the acting body radius when a target file sets none.
const DefaultBodyRadius = 50.0

// Job is one offline solve.
type Job struct {
	Name       string           `yaml:"name"`
	Zone       string           `yaml:"zone"`
	Position   mathutil.Vec3    `yaml:"position"`
	BodyRadius float64          `yaml:"body_radius,omitempty"`
	Actors     []obstacle.Actor `yaml:"actors,omitempty"`
}

// TargetFile is the YAML layout of a target list. Job fields left empty
// inherit the file-level defaults.
type TargetFile struct {
	BodyRadius float64          `yaml:"body_radius"`
	Actors     []obstacle.Actor `yaml:"actors"`
	Targets    []Job            `yaml:"targets"`
}

// LoadTargets reads a target list and applies the file-level defaults to
// every job.
func LoadTargets(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read %s: %w", path, err)
	}
	var tf TargetFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("batch: parse %s: %w", path, err)
	}

	radius := tf.BodyRadius
	if radius <= 0 {
		radius = DefaultBodyRadius
	}
	jobs := make([]Job, len(tf.Targets))
	for i, j := range tf.Targets {
		if j.Zone == "" {
			return nil, fmt.Errorf("batch: %s: target %d has no zone", path, i)
		}
		if j.Name == "" {
			j.Name = fmt.Sprintf("target-%d", i)
		}
		if j.BodyRadius <= 0 {
			j.BodyRadius = radius
		}
		if j.Actors == nil {
			j.Actors = tf.Actors
		}
		jobs[i] = j
	}
	return jobs, nil
}
