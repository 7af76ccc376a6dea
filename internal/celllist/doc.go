// Package celllist implements a periodic cell list: a regular grid over
// fractional coordinates that buckets payloads so that neighbour candidates
// within one cell width can be found without scanning every point.
package celllist
