// Package analyzer implements the segment-finding strategies and the
// ordered pipeline that chains them. Each stage consumes only the items the
// previous stages left unresolved; the first stage to resolve an item wins.
//
// The fingerprint cross-correlation stage is the workhorse: it slides two
// chromaprint sequences against each other to find the longest shared
// low-dissimilarity run, then propagates the anchor match across the rest
// of the season.
package analyzer
