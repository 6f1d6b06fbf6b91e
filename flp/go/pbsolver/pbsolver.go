// Copyright 2010-2025 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pbsolver solves binary mip models with the gophersat pseudo-boolean optimizer.
//
// Every variable of the model must be binary. Linear constraints and the objective are scaled by
// a power of ten until all their coefficients are integral, then translated into pseudo-boolean
// constraints `sum(w*l) >= k` with positive weights by negating literals whose coefficient is
// negative.
package pbsolver

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/crillab/gophersat/solver"
	log "github.com/golang/glog"

	"github.com/operations-research/flp/flp/go/mip"
)

var (
	// ErrNotBinary holds the error when the model has a variable that is not binary.
	ErrNotBinary = errors.New("variable is not binary")
	// ErrNonIntegral holds the error when coefficients cannot be scaled to integers.
	ErrNonIntegral = errors.New("coefficients cannot be scaled to integers")
)

const (
	// maxScaleExponent bounds the power of ten used to make coefficients integral.
	maxScaleExponent = 6
	tolerance        = 1e-9
	maxWeight        = 1 << 40
)

// Solver is a mip.Solver backed by gophersat. The zero value is ready to use.
type Solver struct{}

// New returns a new Solver.
func New() *Solver {
	return &Solver{}
}

var _ mip.Solver = (*Solver)(nil)

// pbRow is `sum(weights[k] * lit(vars[k], neg[k])) >= bound` with positive weights.
type pbRow struct {
	vars    []mip.VarIndex
	neg     []bool
	weights []int
	bound   int
}

type translation struct {
	rows       []pbRow
	infeasible bool
}

// Solve translates the model, minimizes it and returns the response. Errors are returned for
// models the backend cannot represent and for failures inside gophersat.
func (s *Solver) Solve(m *mip.Model) (resp *mip.Response, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("gophersat failed: %v", r)
		}
	}()

	t, err := translate(m)
	if err != nil {
		return nil, err
	}
	values := make([]float64, m.NumVariables())
	if t.infeasible {
		return &mip.Response{Status: mip.Infeasible, Values: values, WallTime: time.Since(start)}, nil
	}

	// Only variables that appear in a row are handed to gophersat, with dense 1-based ids.
	ids := make(map[mip.VarIndex]int)
	var order []mip.VarIndex
	constrs := make([]solver.PBConstr, 0, len(t.rows))
	for _, row := range t.rows {
		lits := make([]int, len(row.vars))
		for k, v := range row.vars {
			id, ok := ids[v]
			if !ok {
				order = append(order, v)
				id = len(order)
				ids[v] = id
			}
			lits[k] = id
			if row.neg[k] {
				lits[k] = -id
			}
		}
		constrs = append(constrs, solver.GtEq(lits, row.weights, row.bound))
	}

	objTerms, _ := m.Objective()
	objCoeffs := make([]float64, len(objTerms))
	for k, term := range objTerms {
		objCoeffs[k] = term.Coeff
	}
	scale, ok := integerScale(objCoeffs)
	if !ok {
		return nil, fmt.Errorf("objective: %w", ErrNonIntegral)
	}
	var costLits []solver.Lit
	var costWeights []int
	for _, term := range objTerms {
		id, used := ids[term.Var]
		if !used {
			// A variable outside every row only matters to the objective.
			if term.Coeff < 0 {
				values[term.Var] = 1
			}
			continue
		}
		w := int(math.Round(term.Coeff * scale))
		lit := id
		if w < 0 {
			lit, w = -id, -w
		}
		costLits = append(costLits, solver.IntToLit(int32(lit)))
		costWeights = append(costWeights, w)
	}

	status := mip.Optimal
	if len(constrs) > 0 {
		log.V(1).Infof("pbsolver: model %q with %d variables, %d rows, %d cost terms", m.Name(), len(order), len(constrs), len(costLits))
		pb := solver.ParsePBConstrs(constrs)
		if len(costLits) > 0 {
			pb.SetCostFunc(costLits, costWeights)
		}
		res := solver.Result{Status: solver.Unsat}
		if pb.Status != solver.Unsat {
			res = solver.New(pb).Optimal(nil, nil)
		}
		switch res.Status {
		case solver.Sat:
			if err := fillValues(values, res.Model, order); err != nil {
				return nil, err
			}
		case solver.Unsat:
			status = mip.Infeasible
		default:
			status = mip.Unknown
		}
	}

	resp = &mip.Response{Status: status, Values: values, WallTime: time.Since(start)}
	if status == mip.Optimal {
		resp.ObjectiveValue = objectiveValue(m, values)
	}
	return resp, nil
}

// translate checks that the model is binary and turns its bounds and active constraints into
// pseudo-boolean rows.
func translate(m *mip.Model) (*translation, error) {
	t := &translation{}
	for _, v := range m.Variables() {
		// Fixed binaries become unit rows; lb > ub ends up as two conflicting rows.
		if !v.IsInteger() {
			return nil, fmt.Errorf("variable %q is continuous: %w", v.Name(), ErrNotBinary)
		}
		lb, ub := v.Bounds()
		if lb < 0 || ub > 1 {
			return nil, fmt.Errorf("variable %q has bounds [%v, %v]: %w", v.Name(), lb, ub, ErrNotBinary)
		}
		unit := []mip.Term{{Var: v.Index(), Coeff: 1}}
		if lb > 0 {
			t.addRow(unit, 1, 1)
		}
		if ub < 1 {
			t.addRow(unit, -1, 0)
		}
	}

	for _, c := range m.Constraints() {
		terms := c.Terms()
		lb, ub := c.Bounds()
		coeffs := make([]float64, 0, len(terms)+2)
		for _, term := range terms {
			coeffs = append(coeffs, term.Coeff)
		}
		scale, ok := integerScale(coeffs)
		if !ok {
			return nil, fmt.Errorf("constraint %q: %w", c.Name(), ErrNonIntegral)
		}
		scaled := make([]mip.Term, len(terms))
		for k, term := range terms {
			scaled[k] = mip.Term{Var: term.Var, Coeff: math.Round(term.Coeff * scale)}
		}
		if !math.IsInf(lb, -1) {
			// The left-hand side is integral, so lb can be rounded up.
			t.addRow(scaled, 1, math.Ceil(lb*scale-tolerance))
		}
		if !math.IsInf(ub, 1) {
			t.addRow(scaled, -1, -math.Floor(ub*scale+tolerance))
		}
	}
	return t, nil
}

// addRow adds `sign * sum(terms) >= bound`. Rows that always hold are dropped, and rows that can
// never hold mark the translation infeasible.
func (t *translation) addRow(terms []mip.Term, sign int, bound float64) {
	row := pbRow{}
	b := bound
	var total float64
	for _, term := range terms {
		w := float64(sign) * term.Coeff
		neg := false
		if w < 0 {
			// w*x == |w|*(1-x) - |w|
			neg, w = true, -w
			b += w
		}
		row.vars = append(row.vars, term.Var)
		row.neg = append(row.neg, neg)
		row.weights = append(row.weights, int(w))
		total += w
	}
	switch {
	case b <= 0:
		return
	case total < b:
		t.infeasible = true
		return
	}
	row.bound = int(b)
	t.rows = append(t.rows, row)
}

// integerScale returns the smallest power of ten that makes all values integral.
func integerScale(vals []float64) (float64, bool) {
	scale := 1.0
	for e := 0; e <= maxScaleExponent; e++ {
		ok := true
		for _, v := range vals {
			s := v * scale
			if math.Abs(s) > maxWeight || math.Abs(s-math.Round(s)) > tolerance*math.Max(1, math.Abs(s)) {
				ok = false
				break
			}
		}
		if ok {
			return scale, true
		}
		scale *= 10
	}
	return 0, false
}

// fillValues copies the gophersat model into `values`. model[k] is the binding of the variable with
// gophersat id k+1, that is order[k].
func fillValues(values []float64, model []bool, order []mip.VarIndex) error {
	if len(model) < len(order) {
		return fmt.Errorf("gophersat returned %d bindings for %d variables", len(model), len(order))
	}
	for k, v := range order {
		if model[k] {
			values[v] = 1
		}
	}
	return nil
}

func objectiveValue(m *mip.Model, values []float64) float64 {
	terms, offset := m.Objective()
	obj := offset
	for _, term := range terms {
		obj += term.Coeff * values[term.Var]
	}
	return obj
}
