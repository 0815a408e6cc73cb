// Package textutil provides small text helpers for filesystem-safe naming.
package textutil
