// Package filtering selects operator records by system ID patterns and by
// supported GBFS versions.
//
// Both filters follow the same precedence rules:
//
//  1. If exclude patterns/versions are specified and match -> exclude (precedence)
//  2. If include patterns/versions are specified and match -> include
//  3. If include patterns/versions are specified but no match -> exclude
//  4. If only exclude patterns/versions specified and no match -> include
//  5. If no filters specified -> include (default behavior)
//
// An operator must pass BOTH filters to be selected.
//
// # ID Filtering
//
// ID patterns are globs compiled with gobwas/glob, so '*' also matches
// across separators:
//
//   - "bixi_*" matches "bixi_mtl"
//   - "*_toronto" matches "bike_share_toronto"
//   - "lime_[a-c]*" matches "lime_berlin" but not "lime_paris"
//
// # Version Filtering
//
// Versions are matched exactly against the operator's supported GBFS
// versions, e.g. "2.3" or "3.0".
package filtering
