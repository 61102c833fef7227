// Package gbfs resolves and fetches the feeds of a single bikeshare system
// published under the General Bikeshare Feed Specification.
//
// A Discoverer reads the auto-discovery document (gbfs.json) once and yields
// a Resolver. The Resolver maps a feed name to its URL for the preferred
// language, or for the first language in document order when no preference
// is set, and fetches the station information, station status and system
// information feeds:
//
//	resolver, err := gbfs.Create(ctx, "https://gbfs.velobixi.com/gbfs/gbfs.json",
//		gbfs.WithPreferredLanguage("fr"))
//	if err != nil {
//		return err
//	}
//	status, err := resolver.GetStationStatus(ctx, "25")
//
// The discovery document never changes after Discover returns. The preferred
// language is the only mutable state of a Resolver and is safe to change from
// any goroutine.
package gbfs
