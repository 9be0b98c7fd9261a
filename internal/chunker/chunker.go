/*Package chunker splits one superstep's time interval into chunks that
are each propagated, broad-phased, and narrow-phased independently
before their detected events are merged — the unit of parallel work one
level above per-particle propagation.
*/
package chunker

// Count returns the number of chunks to split a superstep into, given
// nparts active particles and the configured n_par_ct knob (particles
// per chunk target). It grows with particle count so each chunk still
// holds enough substeps to amortize BVH build cost, and shrinks toward
// 1 for small particle counts, clamped to [1, 2*nParCt] per the
// resolved open question on chunk count scaling.
func Count(nparts, nParCt int) int {
	if nParCt <= 0 {
		nParCt = 1
	}
	n := nparts / nParCt
	if n < 1 {
		n = 1
	}
	max := 2 * nParCt
	if n > max {
		n = max
	}
	return n
}

// Bounds returns the [t0, t1) time interval chunk c of nchunks owns
// within a superstep of length dt, with the final chunk's upper bound
// clamped to exactly dt so rounding error in the division can never
// leave a sliver of the interval unassigned.
func Bounds(c, nchunks int, dt float64) (t0, t1 float64) {
	width := dt / float64(nchunks)
	t0 = float64(c) * width
	if c == nchunks-1 {
		t1 = dt
	} else {
		t1 = float64(c+1) * width
	}
	return t0, t1
}
