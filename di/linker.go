package di

// Linker resolves keys to linked bindings for one top-level request. It
// tracks the keys being linked so a key that requires itself is reported
// as a DependencyCycleError instead of recursing forever.
//
// A Linker is not safe for concurrent use; each request uses its own.
type Linker struct {
	path       []Key
	inProgress map[Key]struct{}
}

// NewLinker returns a Linker with an empty path.
func NewLinker() *Linker {
	return &Linker{inProgress: make(map[Key]struct{})}
}

// Link returns the linked binding for key as seen from component c.
//
// A key with no binding fails with UnsatisfiedDependencyError, unless it is
// an optional key, which links to an Optional that is present only when the
// wrapped key is bound.
func (l *Linker) Link(key Key, c *Component) (LinkedBinding, error) {
	owner, binding, found, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if !found {
		if !key.IsOptional() {
			return nil, UnsatisfiedDependencyError{Key: key, Path: l.requestPath()}
		}
		owner, binding = c, c.implicitOptional(key)
	}
	return l.linkIn(key, owner, binding)
}

// linkIfBound links key when a binding exists and reports ok=false
// otherwise.
func (l *Linker) linkIfBound(key Key, c *Component) (LinkedBinding, bool, error) {
	owner, binding, found, err := c.lookup(key)
	if err != nil || !found {
		return nil, false, err
	}
	linked, err := l.linkIn(key, owner, binding)
	if err != nil {
		return nil, false, err
	}
	return linked, true, nil
}

// linkAll links keys in declaration order.
func (l *Linker) linkAll(keys []Key, c *Component) ([]LinkedBinding, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	out := make([]LinkedBinding, len(keys))
	for i, k := range keys {
		linked, err := l.Link(k, c)
		if err != nil {
			return nil, err
		}
		out[i] = linked
	}
	return out, nil
}

func (l *Linker) linkIn(key Key, owner *Component, binding UnlinkedBinding) (LinkedBinding, error) {
	if linked, ok := owner.linked.Load(key); ok {
		return linked.(LinkedBinding), nil
	}
	if _, busy := l.inProgress[key]; busy {
		return nil, l.cycle(key)
	}

	l.inProgress[key] = struct{}{}
	l.path = append(l.path, key)
	linked, err := binding.Link(l, owner)
	l.path = l.path[:len(l.path)-1]
	delete(l.inProgress, key)
	if err != nil {
		return nil, err
	}

	actual, loaded := owner.linked.LoadOrStore(key, linked)
	if !loaded {
		owner.log.Debug().
			Str("component", owner.desc.String()).
			Str("key", key.String()).
			Str("binding", binding.String()).
			Msg("binding linked")
	}
	return actual.(LinkedBinding), nil
}

func (l *Linker) cycle(key Key) error {
	start := 0
	for i, k := range l.path {
		if k == key {
			start = i
			break
		}
	}
	path := make([]string, 0, len(l.path)-start+1)
	for _, k := range l.path[start:] {
		path = append(path, k.String())
	}
	return DependencyCycleError{Path: append(path, key.String())}
}

func (l *Linker) requestPath() []Key {
	if len(l.path) == 0 {
		return nil
	}
	out := make([]Key, len(l.path))
	copy(out, l.path)
	return out
}
