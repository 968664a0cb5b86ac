package progress

// PageSet is an insertion-ordered set of canonical page paths.
type PageSet struct {
	order []string
	index map[string]struct{}
}

func NewPageSet(paths ...string) *PageSet {
	s := &PageSet{index: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add reports whether the path was not already present.
func (s *PageSet) Add(path string) bool {
	if path == "" {
		return false
	}
	if _, ok := s.index[path]; ok {
		return false
	}
	s.index[path] = struct{}{}
	s.order = append(s.order, path)
	return true
}

func (s *PageSet) Has(path string) bool {
	_, ok := s.index[path]
	return ok
}

func (s *PageSet) Len() int { return len(s.order) }

func (s *PageSet) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
