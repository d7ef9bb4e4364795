package storage

import "github.com/spf13/afero"

// Paths returns the tracked paths in creation order.
func (s *Scope) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Exists reports whether path is present on the manager's filesystem.
func (m *Manager) Exists(path string) bool {
	ok, _ := afero.Exists(m.fs, path)
	return ok
}
