// Package kernel holds the value objects shared by the dispatch aggregates:
// UUID identifiers, WGS84 Location with the haversine distance, and the
// authenticated Caller with its Role.
package kernel
