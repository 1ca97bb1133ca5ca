package registry

// RenameMap records the chosen base filename for each stem, in the order the
// stems were first decided.
type RenameMap struct {
	order []string
	names map[string]string
}

// NewRenameMap returns an empty map.
func NewRenameMap() *RenameMap {
	return &RenameMap{names: make(map[string]string)}
}

// Set records name for stem. Re-setting a stem keeps its position.
func (m *RenameMap) Set(stem, name string) {
	if _, ok := m.names[stem]; !ok {
		m.order = append(m.order, stem)
	}
	m.names[stem] = name
}

// Get returns the name chosen for stem.
func (m *RenameMap) Get(stem string) (string, bool) {
	name, ok := m.names[stem]
	return name, ok
}

// Stems returns the decided stems in order.
func (m *RenameMap) Stems() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of entries.
func (m *RenameMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}
