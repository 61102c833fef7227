// Package integration provides integration tests for the gbfs client. They load
// the systems registry from a fake operator network, hand the auto-discovery
// URL of a registry entry to the feed resolver and read the operator's feeds.
package integration
