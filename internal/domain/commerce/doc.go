// Package commerce contains the storefront's order and product records as
// this service consumes them, and the OrderSource port used to read them.
//
// The records are owned by the upstream store. They are decoded leniently:
// a record with missing or oddly typed fields still decodes, with the
// affected fields left empty, and the upstream JSON is kept so pass-through
// endpoints can re-emit it unchanged.
package commerce
