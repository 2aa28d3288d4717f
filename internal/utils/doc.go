// Package utils holds small helpers shared across the engine that do not
// belong to any domain package.
package utils
