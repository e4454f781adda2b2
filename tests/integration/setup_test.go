package integration

import (
	"testing"

	"github.com/dimitrije/bolt-api/tests/testutil"
)

// setupTest skips under -short and otherwise returns a fresh migrated database.
func setupTest(t *testing.T) (*testutil.TestDB, *testutil.Fixtures) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tdb := testutil.SetupTestDB(t)
	return tdb, testutil.NewFixtures(tdb.DB)
}
