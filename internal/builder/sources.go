package builder

import (
	"fmt"

	"github.com/vk/dqgrid/internal/column"
	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/source"
)

func newSource(s *config.Source, cols []*column.Column) (source.Source, error) {
	switch s.Kind {
	case config.SourceCSV:
		opts := source.CSVOptions{CountColumn: s.CountColumn}
		if s.Delimiter != "" {
			opts.Comma = rune(s.Delimiter[0])
		}
		return source.NewCSV(s.Table, s.Path, cols, opts), nil
	case config.SourceSQLite:
		return source.NewSQLite(s.Table, s.Path, s.Query, cols, s.CountColumn), nil
	default:
		return nil, fmt.Errorf("table %q: unknown source kind %q", s.Table, s.Kind)
	}
}
