// Package canonical defines the vendor-neutral business entity shapes used by
// the connector integration framework. Every connector maps its vendor wire
// models into these types and back; nothing in this package depends on any
// specific external system.
package canonical
