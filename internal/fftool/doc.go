// Package fftool wraps the external ffmpeg/ffprobe binaries behind a small
// typed surface: chromaprint fingerprints, chapter marks, and black-frame
// detection. Every failure surfaces as a fingerprint error carrying file
// context; availability problems are fatal for the run.
package fftool
