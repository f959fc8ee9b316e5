package redis

import (
	"context"
	"strings"

	"github.com/mebooks-ai/mebooks/internal/db"
)

// FlushAll empties the current database.
func (s *Store) FlushAll(ctx context.Context) error {
	cmd := s.b().Flushdb().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpFlushDB, Err: err}
	}
	return nil
}

// KeyCount returns the number of keys in the current database.
func (s *Store) KeyCount(ctx context.Context) (int64, error) {
	cmd := s.b().Dbsize().Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpDBSize, Err: err}
	}
	return n, nil
}

// MemoryUsage returns the server's human-readable memory usage, parsed from
// the INFO memory section.
func (s *Store) MemoryUsage(ctx context.Context) (string, error) {
	cmd := s.b().Info().Section("memory").Build()
	info, err := s.do(ctx, cmd).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpInfo, Err: err}
	}
	return parseUsedMemoryHuman(info), nil
}

func parseUsedMemoryHuman(info string) string {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(line, "used_memory_human:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return "unknown"
}
