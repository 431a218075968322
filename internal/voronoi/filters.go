package voronoi

import (
	"github.com/golang/geo/r2"
)

// CandidateFilter accepts or rejects a candidate point based purely on
// the point itself.
// These filters are run before SiteFilter(s) which naturally require
// us to iterate each site.
type CandidateFilter func(candidate r2.Point) bool

// SiteFilter is a filter for a candidate point that is run
// against every current Site in the builder.
// Ie. we must 'accept' the candidate point when compared
// with every existing Site that we've previously accepted.
type SiteFilter func(candidate, site r2.Point) bool

// MinDistance ensures that a candidate point is at least `dist`
// distance away from every other site.
func MinDistance(dist float64) SiteFilter {
	return func(candidate, site r2.Point) bool {
		return candidate.Sub(site).Norm() >= dist
	}
}

// Within only accepts candidates for which `inside` returns true, used to keep
// sites inside an irregular footprint rather than just the builder bounds.
func Within(inside func(r2.Point) bool) CandidateFilter {
	return func(candidate r2.Point) bool {
		return inside(candidate)
	}
}
