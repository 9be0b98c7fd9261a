/*Package stepdata holds the dense Taylor-coefficient output of one
superstep's propagation: one growable coefficient block and one growable
slice of substep end times per particle, read back by the AABB builder
and narrow phase as the authoritative record of where every particle was
at every instant of the chunk.
*/
package stepdata

import "github.com/go-cascade/cascade/dynamics"

// Store holds every particle's accumulated Taylor coefficient blocks and
// substep end times for the duration of one superstep. It is indexed by
// particle, then by substep.
type Store struct {
	// TCs[p] is particle p's coefficient blocks, one per substep, each of
	// length 7*(order+1) (state components x,y,z,vx,vy,vz,r, dense in
	// that order, each dense in power).
	TCs [][][]float64

	// TCoords[p] is particle p's substep end times, one per substep,
	// accumulated in double-double precision to bound the error of
	// summing many small step sizes over a long chunk.
	TCoords [][]dynamics.DFloat
}

// New returns a Store sized for nparts particles with no substeps
// recorded yet. Per-particle slices are grown lazily by Append rather
// than preallocated; substep counts vary wildly between particles, so
// up-front sizing would mostly overshoot.
func New(nparts int) *Store {
	return &Store{
		TCs:     make([][][]float64, nparts),
		TCoords: make([][]dynamics.DFloat, nparts),
	}
}

// NParts reports the number of particles the store was sized for.
func (s *Store) NParts() int { return len(s.TCs) }

// Append records one accepted substep's coefficient block and end time
// for particle p.
func (s *Store) Append(p int, coeffs []float64, end dynamics.DFloat) {
	s.TCs[p] = append(s.TCs[p], coeffs)
	s.TCoords[p] = append(s.TCoords[p], end)
}

// NSubsteps reports how many substeps have been recorded for particle p.
func (s *Store) NSubsteps(p int) int { return len(s.TCs[p]) }

// Substep returns particle p's coefficient block and end time for its
// i'th recorded substep.
func (s *Store) Substep(p, i int) ([]float64, dynamics.DFloat) {
	return s.TCs[p][i], s.TCoords[p][i]
}

// Reset clears every particle's recorded substeps without releasing the
// outer per-particle slices, so the next superstep's Append calls reuse
// the underlying arrays' capacity.
func (s *Store) Reset() {
	for p := range s.TCs {
		s.TCs[p] = s.TCs[p][:0]
		s.TCoords[p] = s.TCoords[p][:0]
	}
}
