// Package testing provides a reusable conformance suite for content.Store
// implementations.
package testing

import (
	"context"
	"testing"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// StoreTestSuite is a comprehensive test suite for content.Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across different backends (memory,
// filesystem, S3).
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.Store {
//	            return mystore.New(t)
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory that creates a fresh store for each test.
	// Implementations should register cleanup with t.Cleanup.
	NewStore func(t *testing.T) content.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Streams", suite.RunStreamTests)
	t.Run("Objects", suite.RunObjectTests)
	t.Run("Reconciliation", suite.RunReconciliationTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
