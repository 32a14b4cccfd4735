package aggregate

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/reegis/coastdat-cli/internal/model"
)

// Manifest records one aggregation run next to its result file, so a
// result can always be traced back to its inputs and omissions.
type Manifest struct {
	RunID    string    `yaml:"run_id"`
	Started  time.Time `yaml:"started"`
	Finished time.Time `yaml:"finished"`

	Year     int      `yaml:"year"`
	Category string   `yaml:"category,omitempty"`
	Field    string   `yaml:"field,omitempty"`
	Sets     []string `yaml:"sets,omitempty"`

	Regions int      `yaml:"regions"`
	Columns int      `yaml:"columns"`
	Skipped []string `yaml:"skipped,omitempty"`
	Errors  []string `yaml:"errors,omitempty"`
}

// NewManifest starts a manifest for a run beginning now.
func NewManifest(year int) *Manifest {
	return &Manifest{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
		Year:    year,
	}
}

// Finish stamps the end time and folds in the run report.
func (m *Manifest) Finish(report *Report) {
	m.Finished = time.Now().UTC()
	if report == nil {
		return
	}
	for _, r := range report.Skipped() {
		m.Skipped = append(m.Skipped, string(r))
	}
	for _, err := range report.Errs() {
		m.Errors = append(m.Errors, err.Error())
	}
}

// SkippedRegions converts the manifest's skipped list back to region ids.
func (m *Manifest) SkippedRegions() []model.RegionID {
	out := make([]model.RegionID, 0, len(m.Skipped))
	for _, s := range m.Skipped {
		out = append(out, model.RegionID(s))
	}
	return out
}

// WriteManifest writes the manifest as YAML beside the result file.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "aggregate: marshal manifest")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "aggregate: create manifest dir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "aggregate: write manifest %s", path)
	}
	return nil
}

// ReadManifest loads a previously written run manifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "aggregate: parse manifest %s", path)
	}
	return &m, nil
}

// ManifestPath derives the manifest file name from a result file path.
func ManifestPath(resultPath string) string {
	ext := filepath.Ext(resultPath)
	return resultPath[:len(resultPath)-len(ext)] + ".run.yaml"
}
