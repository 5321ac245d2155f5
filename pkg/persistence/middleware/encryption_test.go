package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secureStore(t *testing.T, under ports.ResultStore, cfg middleware.EncryptionConfig) ports.ResultStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(under, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunResultStoreContract(t, secureStore(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_HidesContent(t *testing.T) {
	ctx := context.Background()
	under := memory.NewStore()
	store := secureStore(t, under, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	original := &domain.Outcome{
		RunID:     "run-1",
		RecordID:  "rec-1",
		Resolved:  domain.Assignments{"HeatingFuel": domain.String("NaturalGas")},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, original))

	stored, err := under.Load(ctx, "run-1", "rec-1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Resolved, "HeatingFuel")
	assert.Contains(t, stored.Resolved, middleware.EnvelopeKey)

	loaded, err := store.Load(ctx, "run-1", "rec-1")
	require.NoError(t, err)
	assert.True(t, domain.String("NaturalGas").Equal(loaded.Resolved["HeatingFuel"]))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	under := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := secureStore(t, under, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, &domain.Outcome{RunID: "r", RecordID: "a", Error: "secret"}))

	rotated := secureStore(t, under, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load(ctx, "r", "a")
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.Error)

	withoutFallback := secureStore(t, under, middleware.EncryptionConfig{ActiveKey: newKey})
	_, err = withoutFallback.Load(ctx, "r", "a")
	assert.ErrorContains(t, err, "failed to decrypt")
}

func TestEncryptionMiddleware_RejectsPlainOutcome(t *testing.T) {
	ctx := context.Background()
	under := memory.NewStore()
	require.NoError(t, under.Save(ctx, &domain.Outcome{RunID: "r", RecordID: "plain"}))

	store := secureStore(t, under, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx, "r", "plain")
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestKeys(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)

	key := generateKey(t)
	decoded, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = middleware.DecodeKey("not base64!")
	assert.Error(t, err)
	_, err = middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}
