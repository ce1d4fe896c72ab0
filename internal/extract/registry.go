package extract

import (
	"fmt"
	"sort"
	"sync"

	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// BlockFunc is a custom block scanner for layouts whose anchor logic is too
// novel for the declarative BlockRule. Registered by capability key and
// referenced from a template by name.
type BlockFunc func(text string, loc *Locator) []entity.LineRecord

// Registry holds compiled templates and registered block scanners.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	blockFns  map[string]BlockFunc
}

func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
		blockFns:  make(map[string]BlockFunc),
	}
}

// RegisterBlockFunc makes a custom block scanner available to templates.
// Must happen before any template referencing it is added.
func (r *Registry) RegisterBlockFunc(name string, fn BlockFunc) error {
	if name == "" || fn == nil {
		return common.NewAppError("TEMPLATE_ERROR", "block func name and implementation are required", common.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blockFns[name]; ok {
		return common.NewAppError("TEMPLATE_ERROR", fmt.Sprintf("block func %q already registered", name), common.ErrInvalidInput)
	}
	r.blockFns[name] = fn
	return nil
}

// Add compiles and stores a template definition.
func (r *Registry) Add(def entity.FieldTemplate) error {
	t, err := NewTemplate(def)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if def.BlockFunc != "" {
		fn, ok := r.blockFns[def.BlockFunc]
		if !ok {
			return common.NewAppError("TEMPLATE_ERROR",
				fmt.Sprintf("template %q references unregistered block func %q", def.Key, def.BlockFunc), common.ErrInvalidInput)
		}
		t.blockFn = fn
	}
	if _, ok := r.templates[t.Key]; ok {
		return common.NewAppError("TEMPLATE_ERROR", fmt.Sprintf("template %q already registered", t.Key), common.ErrInvalidInput)
	}
	r.templates[t.Key] = t
	return nil
}

// Get returns a compiled template by key.
func (r *Registry) Get(key string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[key]
	if !ok {
		return nil, common.NewAppError("TEMPLATE_ERROR", fmt.Sprintf("unknown template %q", key), common.ErrNotFound)
	}
	return t, nil
}

// Keys lists registered template keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
