// Package carrier contains the Carrier Catalog bounded context.
// This context keeps a local copy of the shipping carrier directory published
// by the remote provider feed.
//
// Key concepts:
//   - Carrier: one row of the catalog, identified by the provider-assigned ID
//   - Summary: the (id, name) projection used by per-country selection lists
//   - Repository: Port interface for the persisted catalog (the Catalog Store)
//
// Carrier IDs are referenced by historical records elsewhere, so a carrier is
// never physically removed. Carriers that disappear from the feed are only
// flagged as deleted and are revived when they reappear.
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package carrier
