package memory_test

import (
	"testing"

	"github.com/aretw0/flux/pkg/adapters/memory"
	"github.com/aretw0/flux/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	tests.SnapshotStoreContract(t, store)
}
