// Package catalog provides typed product fixtures for tests.
//
// Example usage:
//
//	products := catalog.NewBuilder(t).
//		WithResidentialKit().
//		WithProduct(catalog.BatteryBYDHVM11).
//		Build()
//
//	db := testutil.SetupTestDB(t, products)
package catalog
