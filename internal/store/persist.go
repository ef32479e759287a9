package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

func (s *Store) tmpPath() string { return s.path + ".tmp" }

// persist writes reg to the canonical path. The canonical file is only ever
// replaced by rename, except for the copy fallback.
func (s *Store) persist(reg model.Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		persistTotal.WithLabelValues("failed").Inc()
		return persistFailed(s.path, "encode registry", err)
	}
	data = append(data, '\n')

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		persistTotal.WithLabelValues("failed").Inc()
		return persistFailed(s.path, "create registry directory", err)
	}

	tmp := s.tmpPath()
	if err := s.fs.WriteFile(tmp, data, 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		persistTotal.WithLabelValues("failed").Inc()
		return persistFailed(s.path, "write temporary file", err)
	}

	var renameErr error
	attempts := 0
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		attempts = attempt
		renameErr = s.fs.Rename(tmp, s.path)
		if renameErr == nil {
			if err := s.fs.SyncDir(filepath.Dir(s.path)); err != nil {
				s.logger.Warn("directory sync failed (registry still written)", slog.String("path", s.path), slog.Any("error", err))
			}
			persistTotal.WithLabelValues("renamed").Inc()
			return nil
		}

		crossDevice := isCrossDevice(renameErr)
		retryable := isRetryable(renameErr)
		if crossDevice || !retryable || attempt == s.maxAttempts {
			if crossDevice || retryable {
				if err := s.copyOver(tmp); err == nil {
					persistTotal.WithLabelValues("copied").Inc()
					return nil
				}
			}
			break
		}

		persistRetriesTotal.Inc()
		delay := time.Duration(attempt) * s.retryDelay
		s.logger.Debug("registry rename failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", renameErr),
		)
		s.sleep(delay)
	}

	if err := s.fs.Remove(tmp); err != nil {
		s.logger.Debug("temporary file cleanup failed", slog.String("path", tmp), slog.Any("error", err))
	}
	persistTotal.WithLabelValues("failed").Inc()
	return persistFailed(s.path, fmt.Sprintf("replace registry file after %d attempt(s)", attempts), renameErr)
}

// copyOver is the non-atomic fallback: copy tmp onto the canonical path, then
// drop tmp.
func (s *Store) copyOver(tmp string) error {
	if err := s.fs.CopyFile(tmp, s.path); err != nil {
		s.logger.Warn("registry copy fallback failed", slog.String("path", s.path), slog.Any("error", err))
		return err
	}
	s.logger.Info("registry written by copy fallback", slog.String("path", s.path))
	if err := s.fs.Remove(tmp); err != nil {
		s.logger.Debug("temporary file cleanup failed", slog.String("path", tmp), slog.Any("error", err))
	}
	return nil
}
