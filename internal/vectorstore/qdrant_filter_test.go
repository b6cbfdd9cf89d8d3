package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter_EmptyWhereReturnsNilFilter(t *testing.T) {
	assert.Nil(t, buildFilter(nil))
	assert.Nil(t, buildFilter(Where{}))
}

func TestBuildFilter_SinglePredicateIsWrappedInMust(t *testing.T) {
	f := buildFilter(Where{"tenant_id": "t1"})
	require.NotNil(t, f)
	require.Len(t, f.Must, 1)
	require.Empty(t, f.Should)
	cond := f.Must[0].GetField()
	require.NotNil(t, cond)
	assert.Equal(t, "tenant_id", cond.Key)
	assert.Equal(t, "t1", cond.Match.GetKeyword())
}

func TestBuildFilter_MultiplePredicatesAreConjoinedExplicitly(t *testing.T) {
	f := buildFilter(Where{"tenant_id": "t1", "source_name": "acme"})
	require.NotNil(t, f)
	require.Len(t, f.Must, 2)
	assert.Empty(t, f.Should)

	keys := map[string]bool{}
	for _, c := range f.Must {
		keys[c.GetField().Key] = true
	}
	assert.True(t, keys["tenant_id"])
	assert.True(t, keys["source_name"])
}

func TestChunkIDToUUID_DeterministicAcrossCalls(t *testing.T) {
	a := chunkIDToUUID("doc1:0")
	b := chunkIDToUUID("doc1:0")
	c := chunkIDToUUID("doc1:1")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMatchFor_IntegerValue(t *testing.T) {
	m := matchFor(int64(42))
	assert.Equal(t, int64(42), m.GetInteger())
}
