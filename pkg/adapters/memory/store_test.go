package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunResultStoreContract(t, store)
}

func TestMemoryStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	outcome := &domain.Outcome{
		RunID:    "run",
		RecordID: "r1",
		Resolved: domain.Assignments{"WWR": domain.Number(0.3)},
	}
	require.NoError(t, store.Save(ctx, outcome))

	outcome.Resolved["WWR"] = domain.Number(0.9)
	loaded, err := store.Load(ctx, "run", "r1")
	require.NoError(t, err)
	assert.True(t, domain.Number(0.3).Equal(loaded.Resolved["WWR"]))

	loaded.Resolved["WWR"] = domain.Number(0.8)
	again, err := store.Load(ctx, "run", "r1")
	require.NoError(t, err)
	assert.True(t, domain.Number(0.3).Equal(again.Resolved["WWR"]))
}

func TestPublisher_Records(t *testing.T) {
	p := memory.NewPublisher()
	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, "a", 1))
	require.NoError(t, p.Publish(ctx, "b", 2))
	require.NoError(t, p.Close())

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", msgs[0].Topic)
	assert.Equal(t, 2, msgs[1].Event)
}

func TestSink_Put(t *testing.T) {
	s := memory.NewSink()
	body := []byte("# r")
	require.NoError(t, s.Put(context.Background(), "r.md", "text/markdown", body))
	body[0] = 'x'

	got, ct, ok := s.Get("r.md")
	require.True(t, ok)
	assert.Equal(t, "# r", string(got))
	assert.Equal(t, "text/markdown", ct)

	_, _, ok = s.Get("missing")
	assert.False(t, ok)
}
