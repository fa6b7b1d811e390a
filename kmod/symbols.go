// Package kmod implements the kernel's process-wide symbol registry:
// the table loadable extensions consult to resolve exported kernel
// APIs by name, mirroring Linux's EXPORT_SYMBOL mechanism.
package kmod

import (
	"sync"

	"nexaos/kerrors"
)

// SymbolType classifies what a registered address refers to.
type SymbolType int

const (
	SymbolFunction SymbolType = iota + 1
	SymbolData
	SymbolWeak
)

func (t SymbolType) String() string {
	switch t {
	case SymbolFunction:
		return "function"
	case SymbolData:
		return "data"
	case SymbolWeak:
		return "weak"
	default:
		return "unknown"
	}
}

// Visibility controls whether a symbol participates in lookup/Iter.
type Visibility int

const (
	VisibilityGlobal Visibility = iota
	VisibilityProtected
	VisibilityHidden
)

// Symbol is one entry in the registry.
type Symbol struct {
	Name       string
	Address    uint64
	Type       SymbolType
	Visibility Visibility
}

// Stats reports the registry's memory footprint for observability.
type Stats struct {
	SymbolCount int
	StringBytes int
	EntryBytes  int
	TotalBytes  int
}

// entrySize approximates the in-memory footprint of one Symbol,
// mirroring the struct's size_of in the table this registry is
// modeled on.
const entrySize = 40

// Registry is the kernel's process-wide symbol table. It must be
// initialized with Init before first use; operations before Init fail
// safely rather than panicking.
type Registry struct {
	mu          sync.RWMutex
	symbols     []Symbol
	initialized bool
}

// NewRegistry returns an uninitialized registry. Call Init before use.
func NewRegistry() *Registry {
	return &Registry{}
}

// Init allocates the backing table. Calling Init again is a no-op.
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return
	}
	r.symbols = make([]Symbol, 0, 64)
	r.initialized = true
}

// IsInitialized reports whether Init has run.
func (r *Registry) IsInitialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Register adds name at address with the default global visibility.
func (r *Registry) Register(name string, address uint64, symType SymbolType) error {
	return r.RegisterWithVisibility(name, address, symType, VisibilityGlobal)
}

// RegisterWithVisibility adds name at address with explicit
// visibility. Duplicate registrations are rejected.
func (r *Registry) RegisterWithVisibility(name string, address uint64, symType SymbolType, visibility Visibility) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return kerrors.New(kerrors.KindInvalidState, "register", "symbol table not initialized")
	}
	for _, s := range r.symbols {
		if s.Name == name {
			return kerrors.ErrSymbolExists
		}
	}
	r.symbols = append(r.symbols, Symbol{
		Name:       name,
		Address:    address,
		Type:       symType,
		Visibility: visibility,
	})
	return nil
}

// Unregister removes name, reporting whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.symbols {
		if s.Name == name {
			last := len(r.symbols) - 1
			r.symbols[i] = r.symbols[last]
			r.symbols = r.symbols[:last]
			return true
		}
	}
	return false
}

// Lookup resolves name to its address. Hidden symbols are excluded.
func (r *Registry) Lookup(name string) (uint64, error) {
	sym, err := r.LookupFull(name)
	if err != nil {
		return 0, err
	}
	return sym.Address, nil
}

// LookupFull resolves name to its full Symbol entry. Hidden symbols
// are excluded from lookup.
func (r *Registry) LookupFull(name string) (Symbol, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.symbols {
		if s.Name == name && s.Visibility != VisibilityHidden {
			return s, nil
		}
	}
	return Symbol{}, kerrors.ErrSymbolNotFound
}

// Iter calls each for every non-hidden registered symbol.
func (r *Registry) Iter(each func(Symbol)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.symbols {
		if s.Visibility != VisibilityHidden {
			each(s)
		}
	}
}

// Count returns the total number of registered symbols, including
// hidden ones.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.symbols)
}

// MemoryUsage reports the registry's approximate footprint.
func (r *Registry) MemoryUsage() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stringBytes := 0
	for _, s := range r.symbols {
		stringBytes += len(s.Name)
	}
	entryBytes := len(r.symbols) * entrySize
	return Stats{
		SymbolCount: len(r.symbols),
		StringBytes: stringBytes,
		EntryBytes:  entryBytes,
		TotalBytes:  stringBytes + entryBytes,
	}
}
