// Package kvstore provides the per-component mutable state bag. Values are
// dynamically typed; Update keeps the stored value's runtime type stable.
package kvstore
