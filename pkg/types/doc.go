// Package types defines the campaign entity records, the keyed/unkeyed
// identifier wrapper, entity kinds, link references, and the standard errors
// returned by campman stores.
package types
