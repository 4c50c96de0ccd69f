package recipes

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Registry hands out the current Index. Rebuilds construct a whole new
// index and swap the pointer, so readers always see a complete one.
type Registry struct {
	current atomic.Pointer[Index]
	logger  *zap.Logger
}

// NewRegistry builds the initial index from paths.
func NewRegistry(paths []UpgradePath, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{logger: logger}
	if err := r.Rebuild(paths); err != nil {
		return nil, err
	}
	return r, nil
}

// Load returns the current index.
func (r *Registry) Load() *Index {
	return r.current.Load()
}

// Rebuild replaces the current index. On error the previous index stays.
func (r *Registry) Rebuild(paths []UpgradePath) error {
	idx, err := NewIndex(paths)
	if err != nil {
		r.logger.Warn("Recipe index rebuild rejected", zap.Error(err))
		return err
	}
	old := r.current.Swap(idx)

	fields := []zap.Field{zap.Int("paths", idx.Len()), zap.Int("groups", len(idx.groups))}
	if old != nil {
		fields = append(fields, zap.Int("previousPaths", old.Len()))
	}
	r.logger.Info("Recipe index built", fields...)
	return nil
}
