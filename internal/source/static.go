package source

import (
	"context"
	"errors"
	"io/fs"

	"example.com/timestats/internal/stats"
)

// StaticSource names the bundled snapshot strategy.
const StaticSource = "static"

// DefaultStaticPath is where the bundled snapshot lives relative to the resource root.
const DefaultStaticPath = "data.json"

// StaticStrategy loads the bundled snapshot resource from a filesystem.
type StaticStrategy struct {
	fsys fs.FS
	path string
}

// NewStaticStrategy constructs a StaticStrategy reading path from fsys.
func NewStaticStrategy(fsys fs.FS, path string) *StaticStrategy {
	if path == "" {
		path = DefaultStaticPath
	}
	return &StaticStrategy{fsys: fsys, path: path}
}

// Name implements Strategy.
func (s *StaticStrategy) Name() string { return StaticSource }

// Load implements Strategy.
func (s *StaticStrategy) Load(ctx context.Context) (stats.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.fsys.Open(s.path)
	if err != nil {
		return nil, &stats.TransportError{Source: StaticSource, URL: s.path, Err: err}
	}
	defer f.Close()

	snap, err := stats.Decode(f)
	if err != nil {
		var parseErr *stats.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Source = StaticSource
		}
		return nil, err
	}
	return snap, nil
}
