package storage

// Scope tracks the files one request creates and removes them when the
// request ends. Release deletes each tracked path once; later calls do nothing.
type Scope struct {
	manager  *Manager
	paths    []string
	seen     map[string]bool
	released bool
}

// NewScope starts tracking files for one request.
func (m *Manager) NewScope() *Scope {
	return &Scope{manager: m, seen: make(map[string]bool)}
}

// Track registers path for removal. Tracking after Release removes the path immediately.
func (s *Scope) Track(path string) string {
	if path == "" || s.seen[path] {
		return path
	}
	s.seen[path] = true
	if s.released {
		s.manager.Cleanup(path)
		return path
	}
	s.paths = append(s.paths, path)
	return path
}

// Release removes every tracked file.
func (s *Scope) Release() {
	if s.released {
		return
	}
	s.released = true
	for _, p := range s.paths {
		s.manager.Cleanup(p)
	}
	s.paths = nil
}
