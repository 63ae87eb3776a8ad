package analyzer

import (
	"math"
	"math/bits"

	"skipdetect/internal/fftool"
	"skipdetect/internal/segments"
)

// Alignment thresholds, in differing bits per 32-bit fingerprint block.
// matchThresholdBits gates whether an offset counts as a match at all;
// extendThresholdBits is looser and governs how far the matched run extends
// around the best-aligned region.
const (
	matchThresholdBits  = 6.0
	extendThresholdBits = 12
)

// findSharedSegment cross-correlates two fingerprint sequences and returns
// the longest shared contiguous run, as a window-relative time range per
// side. Both ranges describe the same audio; their absolute positions
// differ because each file contributes its own offset.
func findSharedSegment(fpA, fpB []uint32, minDuration float64) (rangeA, rangeB segments.TimeRange, ok bool) {
	minOverlap := int(minDuration / fftool.BlockDuration)
	if minOverlap < 1 {
		minOverlap = 1
	}
	if len(fpA) < minOverlap || len(fpB) < minOverlap {
		return segments.TimeRange{}, segments.TimeRange{}, false
	}

	bestOffset, found := bestAlignment(fpA, fpB, minOverlap)
	if !found {
		return segments.TimeRange{}, segments.TimeRange{}, false
	}

	startA := max(0, bestOffset)
	startB := max(0, -bestOffset)
	overlap := min(len(fpA)-startA, len(fpB)-startB)

	runStart, runLen := longestSharedRun(fpA[startA:startA+overlap], fpB[startB:startB+overlap])
	duration := float64(runLen) * fftool.BlockDuration
	if duration < minDuration {
		return segments.TimeRange{}, segments.TimeRange{}, false
	}

	rangeA = blockRange(startA+runStart, runLen)
	rangeB = blockRange(startB+runStart, runLen)
	return rangeA, rangeB, true
}

// bestAlignment slides fpB against fpA over every offset with enough
// overlap and returns the offset with the lowest average per-block bit
// difference under the match threshold. Ties prefer the smallest absolute
// offset: the closest temporal alignment is the least likely to be a false
// long-range match.
func bestAlignment(fpA, fpB []uint32, minOverlap int) (int, bool) {
	bestOffset := 0
	bestScore := math.Inf(1)
	found := false

	for offset := -(len(fpB) - minOverlap); offset <= len(fpA)-minOverlap; offset++ {
		startA := max(0, offset)
		startB := max(0, -offset)
		overlap := min(len(fpA)-startA, len(fpB)-startB)
		if overlap < minOverlap {
			continue
		}

		total := 0
		for i := 0; i < overlap; i++ {
			total += bits.OnesCount32(fpA[startA+i] ^ fpB[startB+i])
		}
		score := float64(total) / float64(overlap)
		if score > matchThresholdBits {
			continue
		}
		if score < bestScore || (score == bestScore && abs(offset) < abs(bestOffset)) {
			bestScore = score
			bestOffset = offset
			found = true
		}
	}
	return bestOffset, found
}

// longestSharedRun scans two equal-length aligned slices and returns the
// start index and length of the longest contiguous run whose per-block
// difference stays under the extension threshold. This trims the match to
// the true boundaries of the shared audio instead of the whole window.
func longestSharedRun(a, b []uint32) (start, length int) {
	bestStart, bestLen := 0, 0
	runStart := -1
	for i := 0; i <= len(a); i++ {
		inRun := i < len(a) && bits.OnesCount32(a[i]^b[i]) <= extendThresholdBits
		if inRun {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if runLen := i - runStart; runLen > bestLen {
				bestStart, bestLen = runStart, runLen
			}
			runStart = -1
		}
	}
	return bestStart, bestLen
}

func blockRange(startBlock, blocks int) segments.TimeRange {
	return segments.TimeRange{
		Start: float64(startBlock) * fftool.BlockDuration,
		End:   float64(startBlock+blocks) * fftool.BlockDuration,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
