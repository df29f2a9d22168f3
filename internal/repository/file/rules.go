package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/taxreform/simulator/internal/domain/rules"
	ierr "github.com/taxreform/simulator/internal/errors"
	"github.com/taxreform/simulator/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type rulesRepository struct {
	log *logger.Logger
}

// NewRulesRepository returns a rules.Repository storing documents as JSON files
func NewRulesRepository(log *logger.Logger) rules.Repository {
	return &rulesRepository{log: log}
}

func (r *rulesRepository) Load(ctx context.Context, path string) (*rules.Document, error) {
	r.log.Debugw("loading rule document", "path", path)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ierr.WithError(err).
			WithHintf("Rule document %s not found", path).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Failed to read rule document %s", path).
			Mark(ierr.ErrSystem)
	}

	doc := &rules.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Rule document %s is malformed", path).
			WithReportableDetails(map[string]any{
				"path": path,
			}).
			Mark(ierr.ErrValidation)
	}
	return doc, nil
}

func (r *rulesRepository) Save(ctx context.Context, path string, doc *rules.Document) error {
	r.log.Debugw("saving rule document", "path", path)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode rule document").
			Mark(ierr.ErrSystem)
	}

	// write next to the target and rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to write rule document %s", path).
			Mark(ierr.ErrSystem)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ierr.WithError(err).
			WithHintf("Failed to write rule document %s", path).
			Mark(ierr.ErrSystem)
	}
	if err := tmp.Close(); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to write rule document %s", path).
			Mark(ierr.ErrSystem)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to write rule document %s", path).
			Mark(ierr.ErrSystem)
	}
	return nil
}
