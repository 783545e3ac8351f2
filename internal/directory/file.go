package directory

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/proximity-cli/internal/model"
)

// FileDirectory reads POIs from a YAML file. It backs the simulate
// command and local development without a directory service.
type FileDirectory struct {
	path string
}

// NewFile creates a FileDirectory for the given path.
func NewFile(path string) *FileDirectory {
	return &FileDirectory{path: path}
}

func (d *FileDirectory) ActivePOIs(_ context.Context) ([]model.PointOfInterest, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, eris.Wrapf(err, "directory: read %s", d.path)
	}

	var doc struct {
		POIs []model.PointOfInterest `yaml:"pois"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "directory: parse %s", d.path)
	}
	return doc.POIs, nil
}
