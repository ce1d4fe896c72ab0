package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
)

// Store holds the registered supplier profiles. Reads take copy-on-write
// snapshots, so in-flight detections are unaffected by concurrent training;
// writes are serialized behind the mutex.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*entity.SupplierProfile
	compiled map[string][]*regexp.Regexp
}

func NewStore() *Store {
	return &Store{
		profiles: make(map[string]*entity.SupplierProfile),
		compiled: make(map[string][]*regexp.Regexp),
	}
}

// Register creates a new supplier profile. Patterns are compiled eagerly so a
// malformed pattern fails at registration, never during detection of a
// specific document.
func (s *Store) Register(key, templateKey string, patterns []string) error {
	if strings.TrimSpace(key) == "" {
		return common.NewAppError("PROFILE_ERROR", "supplier key is required", common.ErrInvalidInput)
	}
	compiled, err := compilePatterns(key, patterns)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[key]; ok {
		return common.NewAppError("PROFILE_ERROR", fmt.Sprintf("supplier %q already registered", key), common.ErrInvalidInput)
	}
	now := time.Now().UTC()
	s.profiles[key] = &entity.SupplierProfile{
		Key:         key,
		TemplateKey: templateKey,
		Patterns:    append([]string(nil), patterns...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.compiled[key] = compiled
	return nil
}

// Train stores a new signature computed from a labeled example, optionally
// together with caller-supplied extra identification patterns. Repeated
// training with the same text adds a duplicate signature; duplicates are
// harmless because similarity is a max, not a sum.
func (s *Store) Train(key, text string, extraPatterns ...string) (entity.Signature, error) {
	if strings.TrimSpace(text) == "" {
		return entity.Signature{}, common.NewAppError("TRAIN_ERROR", "example text is empty", common.ErrInvalidInput)
	}
	extra, err := compilePatterns(key, extraPatterns)
	if err != nil {
		return entity.Signature{}, err
	}
	sig := NewSignature(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[key]
	if !ok {
		return entity.Signature{}, common.NewAppError("TRAIN_ERROR", fmt.Sprintf("unknown supplier %q", key), common.ErrNotFound)
	}
	p.Signatures = append(p.Signatures, sig)
	p.Patterns = append(p.Patterns, extraPatterns...)
	p.UpdatedAt = time.Now().UTC()
	s.compiled[key] = append(s.compiled[key], extra...)
	return sig, nil
}

// Load replaces the store contents with persisted profiles.
func (s *Store) Load(profiles []entity.SupplierProfile) error {
	compiled := make(map[string][]*regexp.Regexp, len(profiles))
	fresh := make(map[string]*entity.SupplierProfile, len(profiles))
	for i := range profiles {
		p := profiles[i].Clone()
		c, err := compilePatterns(p.Key, p.Patterns)
		if err != nil {
			return err
		}
		compiled[p.Key] = c
		fresh[p.Key] = &p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = fresh
	s.compiled = compiled
	return nil
}

// Get returns a copy of one profile.
func (s *Store) Get(key string) (entity.SupplierProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[key]
	if !ok {
		return entity.SupplierProfile{}, common.NewAppError("PROFILE_ERROR", fmt.Sprintf("unknown supplier %q", key), common.ErrNotFound)
	}
	return p.Clone(), nil
}

// Snapshot returns deep copies of all profiles, ordered by key.
func (s *Store) Snapshot() []entity.SupplierProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.SupplierProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// patternsFor returns the compiled patterns for a key. The slice is shared;
// callers must not mutate it.
func (s *Store) patternsFor(key string) []*regexp.Regexp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.compiled[key]
}

func compilePatterns(key string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, common.NewAppError("PROFILE_ERROR",
				fmt.Sprintf("invalid identification pattern %q for supplier %q", pat, key), common.ErrInvalidInput)
		}
		out = append(out, re)
	}
	return out, nil
}
