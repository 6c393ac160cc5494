// Package testing provides a reusable conformance suite for record.Store
// implementations.
package testing

import (
	"context"
	"testing"

	"github.com/arborfs/arborfs/pkg/store/record"
)

// StoreTestSuite is a comprehensive test suite for record.Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across different backends (memory, badger).
//
// Usage:
//
//	func TestMyRecordStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) record.Store {
//	            return mystore.New(t)
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory that creates a fresh store for each test.
	// Implementations should register cleanup with t.Cleanup.
	NewStore func(t *testing.T) record.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Nodes", suite.RunNodeTests)
	t.Run("Roots", suite.RunRootTests)
	t.Run("Transactions", suite.RunTransactionTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
