package aabb

import "sort"

// radixThreshold is the particle count below which a stable comparison
// sort's lower constant-factor cost beats radix sort's fixed per-pass
// overhead.
const radixThreshold = 512

// SortByMorton returns the index permutation vidx that visits codes in
// ascending Morton order, stable so that particles sharing a code
// (degenerate, coincident centroids) keep their original relative
// order. Below radixThreshold elements it falls back to a stable
// comparison sort; input-size-adaptive, per the 63-bit codes being cheap
// to radix-sort in bulk but not worth the fixed setup cost for small
// chunks.
func SortByMorton(codes []uint64) []int32 {
	vidx := make([]int32, len(codes))
	for i := range vidx {
		vidx[i] = int32(i)
	}

	if len(codes) < radixThreshold {
		sort.SliceStable(vidx, func(a, b int) bool {
			return codes[vidx[a]] < codes[vidx[b]]
		})
		return vidx
	}

	const passes = 4
	const bits = 16
	const buckets = 1 << bits
	const mask = buckets - 1

	src := vidx
	dst := make([]int32, len(codes))
	var count [buckets]int

	for pass := 0; pass < passes; pass++ {
		shift := uint(pass * bits)
		for i := range count {
			count[i] = 0
		}
		for _, idx := range src {
			b := (codes[idx] >> shift) & mask
			count[b]++
		}
		sum := 0
		for b := 0; b < buckets; b++ {
			c := count[b]
			count[b] = sum
			sum += c
		}
		for _, idx := range src {
			b := (codes[idx] >> shift) & mask
			dst[count[b]] = idx
			count[b]++
		}
		src, dst = dst, src
	}
	return src
}

// Gather materializes srtLbs, srtUbs and srtCodes by applying the
// Morton-sorted permutation vidx to lbs, ubs and codes.
func Gather(vidx []int32, lbs, ubs [][4]float64, codes []uint64) (srtLbs, srtUbs [][4]float64, srtCodes []uint64) {
	srtLbs = make([][4]float64, len(vidx))
	srtUbs = make([][4]float64, len(vidx))
	srtCodes = make([]uint64, len(vidx))
	for i, idx := range vidx {
		srtLbs[i] = lbs[idx]
		srtUbs[i] = ubs[idx]
		srtCodes[i] = codes[idx]
	}
	return srtLbs, srtUbs, srtCodes
}
