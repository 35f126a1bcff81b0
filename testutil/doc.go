// Package testutil provides fakes and helpers shared across package tests:
// a scriptable browser driver, a queued detector, an in-memory image
// fetcher and context helpers.
package testutil
