package testenv

import (
	"testing"

	"ledger-api/internal/store/postgres"

	"github.com/gin-gonic/gin"
)

// TestContainer bundles a running postgres-backed store with a router
// wired against it.
type TestContainer struct {
	Store  *postgres.Store
	Router *gin.Engine
}

// NewTestContainer starts a fresh postgres testcontainer and wires a
// router against it, torn down automatically at the end of t.
func NewTestContainer(t *testing.T) *TestContainer {
	t.Helper()
	store := SetupPostgresStore(t)
	return &TestContainer{
		Store:  store,
		Router: SetupTestRouter(store),
	}
}
