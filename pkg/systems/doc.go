// Package systems loads the global registry of GBFS operators published by
// MobilityData as systems.csv and searches it.
//
// All searches compare text after Normalize, so "MONTRÉAL", "Montréal" and
// "montreal" are equivalent. A Registry never changes after Load returns and
// is safe for concurrent use.
package systems
