package qp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mpcsqp/internal/ocp"
)

// KKT solves equality-constrained subproblems by assembling the full
// KKT system over all nodes and factorizing it densely. It scales
// cubically with the horizon and is meant for short horizons or for
// checking other backends. Resize allocates the KKT matrix once; Solve
// reuses it while the dimensions stay the same.
type KKT struct {
	riccati *Riccati
	kkt     *mat.Dense
	rhs     *mat.VecDense
}

func NewKKT() *KKT {
	return &KKT{riccati: NewRiccati()}
}

// kktDim is the number of primal variables plus the number of equality
// rows: initial state, dynamics, stage and terminal equalities.
func kktDim(size OcpSize) int {
	dim := size.NumTerminalEquality
	for _, nx := range size.NumStates {
		dim += 2 * nx
	}
	for i := range size.NumInputs {
		dim += size.NumInputs[i]
	}
	for i := range size.NumEquality {
		dim += size.NumEquality[i]
	}
	return dim
}

func (k *KKT) Resize(size OcpSize) {
	k.riccati.Resize(size)
	k.workspace(kktDim(size))
}

// workspace returns a zeroed system of dimension dim.
func (k *KKT) workspace(dim int) (*mat.Dense, *mat.VecDense) {
	if k.kkt == nil || k.rhs.Len() != dim {
		k.kkt = mat.NewDense(dim, dim, nil)
		k.rhs = mat.NewVecDense(dim, nil)
		return k.kkt, k.rhs
	}
	k.kkt.Zero()
	k.rhs.Zero()
	return k.kkt, k.rhs
}

type layout struct {
	xOff, uOff []int
	nz         int
	rows       int
}

func newLayout(dynamics []ocp.LinearApproximation, constraints []*ocp.LinearApproximation) layout {
	n := len(dynamics)
	l := layout{xOff: make([]int, n+1), uOff: make([]int, n)}
	for i := 0; i < n; i++ {
		next, nx := dynamics[i].Dfdx.Dims()
		_, nu := dynamics[i].Dfdu.Dims()
		l.xOff[i] = l.nz
		l.uOff[i] = l.nz + nx
		l.nz += nx + nu
		l.rows += next
	}
	last, _ := dynamics[n-1].Dfdx.Dims()
	l.xOff[n] = l.nz
	l.nz += last
	_, first := dynamics[0].Dfdx.Dims()
	l.rows += first
	for _, c := range constraints {
		if c != nil {
			l.rows += c.Rows()
		}
	}
	return l
}

func addBlock(dst *mat.Dense, i, j int, src mat.Matrix, alpha float64) {
	r, c := src.Dims()
	for a := 0; a < r; a++ {
		for b := 0; b < c; b++ {
			dst.Set(i+a, j+b, dst.At(i+a, j+b)+alpha*src.At(a, b))
		}
	}
}

func setSegment(dst *mat.VecDense, i int, src mat.Vector, alpha float64) {
	for a := 0; a < src.Len(); a++ {
		dst.SetVec(i+a, alpha*src.AtVec(a))
	}
}

func (k *KKT) Solve(dx0 *mat.VecDense, dynamics []ocp.LinearApproximation, cost []ocp.QuadraticApproximation, constraints []*ocp.LinearApproximation) (Solution, Status) {
	n := len(dynamics)
	l := newLayout(dynamics, constraints)
	dim := l.nz + l.rows

	kkt, rhs := k.workspace(dim)

	for i := 0; i <= n; i++ {
		c := cost[i]
		addBlock(kkt, l.xOff[i], l.xOff[i], c.Dfdxx, 1)
		setSegment(rhs, l.xOff[i], c.Dfdx, -1)
		if i == n {
			break
		}
		addBlock(kkt, l.uOff[i], l.uOff[i], c.Dfduu, 1)
		addBlock(kkt, l.uOff[i], l.xOff[i], c.Dfdux, 1)
		addBlock(kkt, l.xOff[i], l.uOff[i], c.Dfdux.T(), 1)
		setSegment(rhs, l.uOff[i], c.Dfdu, -1)
	}

	row := l.nz
	constrain := func(block mat.Matrix, col int, alpha float64) {
		addBlock(kkt, row, col, block, alpha)
		addBlock(kkt, col, row, block.T(), alpha)
	}

	nx0 := dx0.Len()
	constrain(eye(nx0), l.xOff[0], 1)
	setSegment(rhs, row, dx0, 1)
	row += nx0

	for i := 0; i < n; i++ {
		nx, _ := dynamics[i].Dfdx.Dims()
		constrain(eye(nx), l.xOff[i+1], 1)
		constrain(dynamics[i].Dfdx, l.xOff[i], -1)
		constrain(dynamics[i].Dfdu, l.uOff[i], -1)
		setSegment(rhs, row, dynamics[i].F, 1)
		row += nx
	}

	for i, c := range constraints {
		if c == nil {
			continue
		}
		constrain(c.Dfdx, l.xOff[i], 1)
		if i < n && c.Dfdu != nil {
			constrain(c.Dfdu, l.uOff[i], 1)
		}
		setSegment(rhs, row, c.F, -1)
		row += c.Rows()
	}

	var z mat.VecDense
	if err := z.SolveVec(kkt, rhs); err != nil {
		return Solution{}, Inconsistent
	}

	sol := Solution{
		StateDeltas: make([]*mat.VecDense, n+1),
		InputDeltas: make([]*mat.VecDense, n),
	}
	for i := 0; i <= n; i++ {
		end := l.nz
		if i < n {
			end = l.uOff[i]
		}
		sol.StateDeltas[i] = mat.VecDenseCopyOf(z.SliceVec(l.xOff[i], end))
		if i < n {
			sol.InputDeltas[i] = mat.VecDenseCopyOf(z.SliceVec(l.uOff[i], l.xOff[i+1]))
		}
	}
	if hasNonFinite(sol) {
		return sol, NaNSolution
	}
	return sol, Success
}

// FeedbackGains eliminates the stage equality constraints by projection,
// runs a Riccati sweep on the reduced problem and maps the gains back:
// K = Px + Pu·K̃. Terminal state constraints do not enter the gains.
func (k *KKT) FeedbackGains(dynamics []ocp.LinearApproximation, cost []ocp.QuadraticApproximation, constraints []*ocp.LinearApproximation) ([]*mat.Dense, error) {
	n := len(dynamics)
	projected := make([]ocp.LinearApproximation, n)
	reduced := make([]ocp.QuadraticApproximation, n+1)
	projections := make([]*ocp.LinearApproximation, n)
	copy(projected, dynamics)
	copy(reduced, cost)

	for i := 0; i < n && i < len(constraints); i++ {
		if constraints[i] == nil {
			continue
		}
		p, err := ocp.ProjectEquality(*constraints[i])
		if err != nil {
			return nil, err
		}
		projections[i] = &p
		projected[i] = ocp.ProjectDynamics(dynamics[i], p)
		reduced[i] = ocp.ProjectCost(cost[i], p)
	}

	gains, err := k.riccati.FeedbackGains(projected, reduced, nil)
	if err != nil {
		return nil, err
	}
	for i, p := range projections {
		if p == nil {
			continue
		}
		g := mat.DenseCopyOf(p.Dfdx)
		var tmp mat.Dense
		tmp.Mul(p.Dfdu, gains[i])
		g.Add(g, &tmp)
		gains[i] = g
	}
	return gains, nil
}

func eye(n int) *mat.DiagDense {
	d := make([]float64, n)
	for i := range d {
		d[i] = 1
	}
	return mat.NewDiagDense(n, d)
}
