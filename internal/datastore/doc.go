// Package datastore unifies several backing containers behind a single
// element namespace and caches element values in memory.
//
// Each Container wraps one Handler (a file, a database, a map) at a
// Location. When a container is added, the elements it serves are routed
// to it. Reads go through the cache; writes only mark the cache entry dirty
// and reach the owning handler on Flush. Elements without an owning
// container, such as intermediate results, live only in the cache.
package datastore
