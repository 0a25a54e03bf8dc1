// Package face finds photos of a person by comparing face crops.
//
// Reference photos are processed at full resolution; each yields one
// ReferenceFace. Library photos are shrunk to fit MaxCandidateSide before
// detection, every detected region is cropped with padding, normalized to a
// CropSide x CropSide RGB buffer and compared against every reference. A
// photo matches when its best similarity reaches the threshold.
//
// Similarity is normalized cross-correlation of raw pixels. It is a
// heuristic, so the threshold is a tunable rather than a probability.
package face
