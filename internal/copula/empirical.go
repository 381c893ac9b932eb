package copula

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultReplicates is the number of same-size copula samples drawn per
// reference family when building the validation curves.
const DefaultReplicates = 10000

// EmpiricalRanks maps each value to count(y <= x) / (n + 1). The n+1
// denominator keeps ranks strictly inside (0, 1).
func EmpiricalRanks(xs []float64) []float64 {
	n := len(xs)
	ranks := make([]float64, n)
	for i, x := range xs {
		count := 0
		for _, y := range xs {
			if y <= x {
				count++
			}
		}
		ranks[i] = float64(count) / float64(n+1)
	}
	return ranks
}

// CopulaPoint returns the fraction of reference pairs at or below (u, v)
// in both coordinates.
func CopulaPoint(u, v float64, refU, refV []float64) float64 {
	count := 0
	for i := range refU {
		if refU[i] <= u && refV[i] <= v {
			count++
		}
	}
	return float64(count) / float64(len(refU))
}

// fenwick is a 1-based binary indexed tree over v-ranks.
type fenwick struct {
	tree []int
}

func newFenwick(n int) *fenwick {
	return &fenwick{tree: make([]int, n+1)}
}

func (f *fenwick) add(i int) {
	for ; i < len(f.tree); i += i & -i {
		f.tree[i]++
	}
}

func (f *fenwick) sum(i int) int {
	s := 0
	for ; i > 0; i -= i & -i {
		s += f.tree[i]
	}
	return s
}

// countAtOrBelow returns, for each query pair, how many reference pairs
// sit at or below it in both coordinates. A direct scan is quadratic at
// reference sizes of n*replicates, so the queries are answered in one
// sweep ordered by u with a fenwick tree over v-ranks. Tie handling
// matches CopulaPoint exactly.
func countAtOrBelow(refU, refV, qu, qv []float64) []int {
	m := len(refU)

	sortedV := append([]float64(nil), refV...)
	sort.Float64s(sortedV)
	vRank := func(v float64) int {
		return sort.Search(m, func(i int) bool { return sortedV[i] > v })
	}

	refOrder := make([]int, m)
	for i := range refOrder {
		refOrder[i] = i
	}
	sort.Slice(refOrder, func(a, b int) bool { return refU[refOrder[a]] < refU[refOrder[b]] })

	qOrder := make([]int, len(qu))
	for i := range qOrder {
		qOrder[i] = i
	}
	sort.Slice(qOrder, func(a, b int) bool { return qu[qOrder[a]] < qu[qOrder[b]] })

	counts := make([]int, len(qu))
	tree := newFenwick(m)
	j := 0
	for _, qi := range qOrder {
		for j < m && refU[refOrder[j]] <= qu[qi] {
			tree.add(vRank(refV[refOrder[j]]))
			j++
		}
		counts[qi] = tree.sum(vRank(qv[qi]))
	}
	return counts
}

// CurvePoint is one order statistic of the copula validation curves.
// Fitted carries a 5th/95th percentile band over its replicates; the
// independence and comonotone families act as lower and upper envelopes.
type CurvePoint struct {
	Data             float64 `json:"data"`
	FittedMean       float64 `json:"fitted_mean"`
	FittedQ5         float64 `json:"fitted_q5"`
	FittedQ95        float64 `json:"fitted_q95"`
	IndependenceMean float64 `json:"independence_mean"`
	ComonotoneMean   float64 `json:"comonotone_mean"`
}

// Validation is the rank-based check of the fitted copula against the
// historical record.
type Validation struct {
	N       int          `json:"n"`
	Tau     float64      `json:"tau"`
	TauRank float64      `json:"tau_rank"`
	W       []float64    `json:"w"`
	H       []float64    `json:"h"`
	Curves  []CurvePoint `json:"curves"`
}

// Validator draws replicate copula samples and summarizes how the
// historical rank pairs sit against them.
type Validator struct {
	Replicates int
	Seed       uint64
}

// Validate builds the validation table for paired historical samples and
// the fitted normal-equivalent correlation.
func (v *Validator) Validate(feb, apr []float64, rho float64) (*Validation, error) {
	n := len(feb)
	if n != len(apr) {
		return nil, fmt.Errorf("copula: sample length mismatch %d vs %d", n, len(apr))
	}
	if n < 2 {
		return nil, errors.New("copula: need at least two paired observations")
	}
	if rho <= -1 || rho >= 1 {
		return nil, fmt.Errorf("copula: correlation %v out of (-1, 1)", rho)
	}
	replicates := v.Replicates
	if replicates <= 0 {
		replicates = DefaultReplicates
	}

	rankFeb := EmpiricalRanks(feb)
	rankApr := EmpiricalRanks(apr)

	w := make([]float64, n)
	h := make([]float64, n)
	for i, c := range countAtOrBelow(rankFeb, rankApr, rankFeb, rankApr) {
		w[i] = float64(c) / float64(n)
		h[i] = (float64(n)*w[i] - 1) / float64(n-1)
	}
	nf := float64(n)
	tauRank := 4*nf/(nf-1)*stat.Mean(w, nil) - (nf+3)/(nf-1)

	src := rand.NewSource(v.Seed)
	cov := mat.NewSymDense(2, []float64{1, rho, rho, 1})
	fitted, ok := distmv.NewNormal([]float64{0, 0}, cov, src)
	if !ok {
		return nil, errors.New("copula: correlation matrix not positive definite")
	}
	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	m := n * replicates
	fittedU, fittedV := make([]float64, m), make([]float64, m)
	z := make([]float64, 2)
	for i := 0; i < m; i++ {
		z = fitted.Rand(z)
		fittedU[i] = distuv.UnitNormal.CDF(z[0])
		fittedV[i] = distuv.UnitNormal.CDF(z[1])
	}

	indepU, indepV := make([]float64, m), make([]float64, m)
	for i := 0; i < m; i++ {
		indepU[i] = distuv.UnitNormal.CDF(stdNorm.Rand())
		indepV[i] = distuv.UnitNormal.CDF(stdNorm.Rand())
	}

	comonU, comonV := make([]float64, m), make([]float64, m)
	for i := 0; i < m; i++ {
		u := distuv.UnitNormal.CDF(stdNorm.Rand())
		comonU[i] = u
		comonV[i] = u
	}

	curves := make([]CurvePoint, n)

	fittedCols := replicateColumns(fittedU, fittedV, n, replicates)
	for j := range curves {
		sort.Float64s(fittedCols[j])
		curves[j].FittedMean = stat.Mean(fittedCols[j], nil)
		curves[j].FittedQ5 = stat.Quantile(0.05, stat.Empirical, fittedCols[j], nil)
		curves[j].FittedQ95 = stat.Quantile(0.95, stat.Empirical, fittedCols[j], nil)
	}
	for j, col := range replicateColumns(indepU, indepV, n, replicates) {
		curves[j].IndependenceMean = stat.Mean(col, nil)
	}
	for j, col := range replicateColumns(comonU, comonV, n, replicates) {
		curves[j].ComonotoneMean = stat.Mean(col, nil)
	}

	data := make([]float64, n)
	for i, c := range countAtOrBelow(fittedU, fittedV, rankFeb, rankApr) {
		data[i] = float64(c) / float64(m)
	}
	sort.Float64s(data)
	for j := range curves {
		curves[j].Data = data[j]
	}

	return &Validation{
		N:       n,
		Tau:     KendallTau(feb, apr),
		TauRank: tauRank,
		W:       w,
		H:       h,
		Curves:  curves,
	}, nil
}

// replicateColumns evaluates every point of the family against the whole
// family, sorts each replicate's n values into a curve, and regroups them
// by order statistic: column j holds the j-th smallest value of each
// replicate.
func replicateColumns(u, v []float64, n, replicates int) [][]float64 {
	m := n * replicates
	counts := countAtOrBelow(u, v, u, v)

	cols := make([][]float64, n)
	for j := range cols {
		cols[j] = make([]float64, replicates)
	}
	block := make([]float64, n)
	for r := 0; r < replicates; r++ {
		for j := 0; j < n; j++ {
			block[j] = float64(counts[r*n+j]) / float64(m)
		}
		sort.Float64s(block)
		for j := 0; j < n; j++ {
			cols[j][r] = block[j]
		}
	}
	return cols
}
