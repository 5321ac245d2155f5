package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_NewFromNodes(t *testing.T) {
	loader, err := memory.NewFromNodes(
		[]domain.Component{{ID: "c"}},
		&domain.ComponentRefNode{ID: "start", ComponentID: "c"},
		&domain.AssignmentNode{ID: "other"},
	)
	require.NoError(t, err)

	g, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"start"}, g.Entries())
	assert.Equal(t, 2, g.NodeCount())

	_, err = memory.NewFromNodes(nil)
	assert.Error(t, err)

	_, err = memory.NewFromNodes(nil, &domain.AssignmentNode{})
	assert.Error(t, err)

	_, err = memory.New(nil).Load(context.Background())
	assert.Error(t, err)
}
