package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haakon-okland/invoice-core/internal/classify"
	"github.com/haakon-okland/invoice-core/internal/extract"
)

func TestRegisterBuiltins(t *testing.T) {
	store := classify.NewStore()
	reg := extract.NewRegistry()

	require.NoError(t, RegisterBuiltins(store, reg))

	_, err := reg.Get(TeliaKey)
	require.NoError(t, err)

	p, err := store.Get(TeliaKey)
	require.NoError(t, err)
	assert.Equal(t, TeliaKey, p.TemplateKey)
	assert.Equal(t, TeliaPatterns(), p.Patterns)
}

func TestRegisterBuiltins_KeepsPersistedProfile(t *testing.T) {
	store := classify.NewStore()
	require.NoError(t, store.Register(TeliaKey, TeliaKey, []string{`(?i)telia`}))

	// A profile loaded from the database (with trained signatures and extra
	// patterns) must not be reset by built-in registration.
	require.NoError(t, RegisterBuiltins(store, extract.NewRegistry()))

	p, err := store.Get(TeliaKey)
	require.NoError(t, err)
	assert.Equal(t, []string{`(?i)telia`}, p.Patterns)
}
