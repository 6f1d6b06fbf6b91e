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

// Package mip offers a small API to build mixed-integer linear models that are
// handed to an external solver.
//
// The `Model` struct owns the variables, the linear constraints and the
// minimization objective. The `Variable` and `Constraint` structs are handles
// to specific elements of a model. The `LinearExpr` struct provides helper
// methods for creating constraints and the objective from expressions with
// many variables and coefficients.
//
// Solving is delegated to an implementation of the `Solver` interface.
package mip

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

var (
	// ErrMixedModels holds the error when elements added to a model are different.
	ErrMixedModels = errors.New("elements are not part of the same model")
	// ErrDuplicateName holds the error when a variable or constraint name is already in use.
	ErrDuplicateName = errors.New("name already exists")
	// ErrInvalidBounds holds the error when a bound is NaN or the lower bound is +inf.
	ErrInvalidBounds = errors.New("invalid bounds")
)

type (
	// VarIndex is the index of a variable in the model.
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model. Indices are never reused, even after
	// the constraint is removed.
	ConstrIndex int32
)

// Term is a variable with its coefficient in a linear constraint or in the objective.
type Term struct {
	Var   VarIndex
	Coeff float64
}

// LinearArgument provides an interface for Variable and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c float64)
	evaluateSolutionValue(r *Response) float64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	varCoeffs []varCoeff
	offset    float64
}

type varCoeff struct {
	ind   VarIndex
	coeff float64
	m     *Model
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c float64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	l.AddTerm(la, 1)
	return l
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff float64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// AddWeightedSum adds the linear arguments with the corresponding coefficients to the LinearExpr
// and returns itself.
func (l *LinearExpr) AddWeightedSum(las []LinearArgument, coeffs []float64) *LinearExpr {
	if len(coeffs) != len(las) {
		log.Fatalf("las and coeffs must be the same length: %v != %v", len(las), len(coeffs))
	}
	for i, la := range las {
		l.AddTerm(la, coeffs[i])
	}
	return l
}

// Offset returns the constant part of the expression.
func (l *LinearExpr) Offset() float64 {
	return l.offset
}

// NumTerms returns the number of (not merged) variable terms of the expression.
func (l *LinearExpr) NumTerms() int {
	return len(l.varCoeffs)
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c float64) {
	for _, vc := range l.varCoeffs {
		e.varCoeffs = append(e.varCoeffs, varCoeff{ind: vc.ind, coeff: vc.coeff * c, m: vc.m})
	}
	e.offset += l.offset * c
}

func (l *LinearExpr) evaluateSolutionValue(r *Response) float64 {
	result := l.offset
	for _, vc := range l.varCoeffs {
		result += r.value(vc.ind) * vc.coeff
	}
	return result
}

// terms merges the coefficients of repeated variables, keeping the order of first appearance,
// and drops the variables whose coefficient cancels out.
func (l *LinearExpr) terms(m *Model) ([]Term, error) {
	pos := make(map[VarIndex]int)
	var merged []Term
	for _, vc := range l.varCoeffs {
		if vc.m != m {
			return nil, fmt.Errorf("variable %v: %w", vc.ind, ErrMixedModels)
		}
		if p, ok := pos[vc.ind]; ok {
			merged[p].Coeff += vc.coeff
			continue
		}
		pos[vc.ind] = len(merged)
		merged = append(merged, Term{Var: vc.ind, Coeff: vc.coeff})
	}
	result := merged[:0]
	for _, t := range merged {
		if t.Coeff != 0 {
			result = append(result, t)
		}
	}
	return result, nil
}

// Variable is a reference to a variable in the model.
type Variable struct {
	ind VarIndex
	m   *Model
}

// Name returns the name of the variable.
func (v Variable) Name() string {
	return v.m.vars[v.ind].name
}

// Index returns the index of the variable.
func (v Variable) Index() VarIndex {
	return v.ind
}

// Bounds returns the lower and upper bounds of the variable.
func (v Variable) Bounds() (float64, float64) {
	p := v.m.vars[v.ind]
	return p.lb, p.ub
}

// IsInteger returns whether the variable is restricted to integral values.
func (v Variable) IsInteger() bool {
	return v.m.vars[v.ind].integer
}

// IsBinary returns whether the variable is an integer variable within [0, 1].
func (v Variable) IsBinary() bool {
	p := v.m.vars[v.ind]
	return p.integer && p.lb >= 0 && p.ub <= 1
}

func (v Variable) addToLinearExpr(e *LinearExpr, c float64) {
	e.varCoeffs = append(e.varCoeffs, varCoeff{ind: v.ind, coeff: c, m: v.m})
}

func (v Variable) evaluateSolutionValue(r *Response) float64 {
	return r.value(v.ind)
}

// Constraint is a reference to a linear constraint `lb <= sum(terms) <= ub` in the model.
type Constraint struct {
	ind ConstrIndex
	m   *Model
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.m.constrs[c.ind].name
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// Bounds returns the bounds of the constraint, with the expression offset already moved to the
// bounds.
func (c Constraint) Bounds() (float64, float64) {
	p := c.m.constrs[c.ind]
	return p.lb, p.ub
}

// Terms returns the merged terms of the constraint. The returned slice must not be modified.
func (c Constraint) Terms() []Term {
	return c.m.constrs[c.ind].terms
}

// Active returns false once the constraint has been removed from its model.
func (c Constraint) Active() bool {
	return c.m != nil && !c.m.constrs[c.ind].removed
}

type variableProto struct {
	name    string
	lb, ub  float64
	integer bool
}

type constraintProto struct {
	name    string
	lb, ub  float64
	terms   []Term
	removed bool
}

type objectiveProto struct {
	terms  []Term
	offset float64
}

// Model holds the variables, constraints and objective of a mixed-integer linear model.
type Model struct {
	name        string
	vars        []*variableProto
	constrs     []*constraintProto
	varNames    map[string]VarIndex
	constrNames map[string]ConstrIndex
	numActive   int
	objective   *objectiveProto
}

// NewModel creates and returns a new empty model.
func NewModel(name string) *Model {
	return &Model{
		name:        name,
		varNames:    make(map[string]VarIndex),
		constrNames: make(map[string]ConstrIndex),
	}
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// NewVar creates and returns a new variable with bounds [lb, ub].
//
// Make `name` an empty string if you would like a unique variable name to be generated. Otherwise
// an error is returned if the provided `name` already exists as a variable name.
func (m *Model) NewVar(lb, ub float64, integer bool, name string) (Variable, error) {
	if math.IsNaN(lb) || math.IsNaN(ub) || math.IsInf(lb, 1) || math.IsInf(ub, -1) {
		return Variable{}, fmt.Errorf("variable %q with bounds [%v, %v]: %w", name, lb, ub, ErrInvalidBounds)
	}
	if name == "" {
		name = m.uniqueName("v", len(m.vars), func(s string) bool { _, ok := m.varNames[s]; return ok })
	}
	if _, ok := m.varNames[name]; ok {
		return Variable{}, fmt.Errorf("variable %q: %w", name, ErrDuplicateName)
	}
	ind := VarIndex(len(m.vars))
	m.vars = append(m.vars, &variableProto{name: name, lb: lb, ub: ub, integer: integer})
	m.varNames[name] = ind
	return Variable{ind: ind, m: m}, nil
}

// NewBoolVar creates a new Boolean (binary) variable.
func (m *Model) NewBoolVar(name string) (Variable, error) {
	return m.NewVar(0, 1, true, name)
}

// LookupVar returns the variable with the given name.
func (m *Model) LookupVar(name string) (Variable, bool) {
	ind, ok := m.varNames[name]
	if !ok {
		return Variable{}, false
	}
	return Variable{ind: ind, m: m}, true
}

// Var returns the variable at index `ind`.
func (m *Model) Var(ind VarIndex) Variable {
	return Variable{ind: ind, m: m}
}

// NumVariables returns the number of variables in the model.
func (m *Model) NumVariables() int {
	return len(m.vars)
}

// Variables returns all the variables of the model, ordered by index.
func (m *Model) Variables() []Variable {
	vs := make([]Variable, len(m.vars))
	for i := range m.vars {
		vs[i] = Variable{ind: VarIndex(i), m: m}
	}
	return vs
}

// AddConstraint adds the linear constraint `lb <= expr <= ub`. Use math.Inf for one-sided
// constraints.
//
// Make `name` an empty string if you would like a unique constraint name to be generated.
// Otherwise an error is returned if the provided `name` is used by another active constraint.
func (m *Model) AddConstraint(expr LinearArgument, lb, ub float64, name string) (Constraint, error) {
	if math.IsNaN(lb) || math.IsNaN(ub) || math.IsInf(lb, 1) || math.IsInf(ub, -1) {
		return Constraint{}, fmt.Errorf("constraint %q with bounds [%v, %v]: %w", name, lb, ub, ErrInvalidBounds)
	}
	e := NewLinearExpr().Add(expr)
	terms, err := e.terms(m)
	if err != nil {
		return Constraint{}, fmt.Errorf("constraint %q: %w", name, err)
	}
	if name == "" {
		name = m.uniqueName("c", len(m.constrs), func(s string) bool { _, ok := m.constrNames[s]; return ok })
	}
	if _, ok := m.constrNames[name]; ok {
		return Constraint{}, fmt.Errorf("constraint %q: %w", name, ErrDuplicateName)
	}

	ind := ConstrIndex(len(m.constrs))
	m.constrs = append(m.constrs, &constraintProto{
		name:  name,
		lb:    lb - e.offset,
		ub:    ub - e.offset,
		terms: terms,
	})
	m.constrNames[name] = ind
	m.numActive++
	return Constraint{ind: ind, m: m}, nil
}

// AddLessOrEqual adds the linear constraint `expr <= ub`.
func (m *Model) AddLessOrEqual(expr LinearArgument, ub float64, name string) (Constraint, error) {
	return m.AddConstraint(expr, math.Inf(-1), ub, name)
}

// AddGreaterOrEqual adds the linear constraint `expr >= lb`.
func (m *Model) AddGreaterOrEqual(expr LinearArgument, lb float64, name string) (Constraint, error) {
	return m.AddConstraint(expr, lb, math.Inf(1), name)
}

// AddEquality adds the linear constraint `expr == rhs`.
func (m *Model) AddEquality(expr LinearArgument, rhs float64, name string) (Constraint, error) {
	return m.AddConstraint(expr, rhs, rhs, name)
}

// RemoveConstraint removes the constraint from the model. Removing a constraint that was already
// removed, or that belongs to another model, has no effect.
func (m *Model) RemoveConstraint(c Constraint) {
	if c.m != m || int(c.ind) < 0 || int(c.ind) >= len(m.constrs) {
		log.V(2).Infof("ignoring removal of unknown constraint %v", c.ind)
		return
	}
	p := m.constrs[c.ind]
	if p.removed {
		return
	}
	p.removed = true
	delete(m.constrNames, p.name)
	m.numActive--
}

// LookupConstraint returns the active constraint with the given name.
func (m *Model) LookupConstraint(name string) (Constraint, bool) {
	ind, ok := m.constrNames[name]
	if !ok {
		return Constraint{}, false
	}
	return Constraint{ind: ind, m: m}, true
}

// NumConstraints returns the number of active constraints in the model.
func (m *Model) NumConstraints() int {
	return m.numActive
}

// Constraints returns the active constraints, in insertion order.
func (m *Model) Constraints() []Constraint {
	cs := make([]Constraint, 0, m.numActive)
	for i, p := range m.constrs {
		if !p.removed {
			cs = append(cs, Constraint{ind: ConstrIndex(i), m: m})
		}
	}
	return cs
}

// Minimize sets a linear minimization objective, replacing any previous objective.
func (m *Model) Minimize(obj LinearArgument) error {
	e := NewLinearExpr().Add(obj)
	terms, err := e.terms(m)
	if err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = &objectiveProto{terms: terms, offset: e.offset}
	return nil
}

// HasObjective returns whether an objective was set.
func (m *Model) HasObjective() bool {
	return m.objective != nil
}

// Objective returns the terms and the constant offset of the objective. Both are zero when no
// objective was set.
func (m *Model) Objective() ([]Term, float64) {
	if m.objective == nil {
		return nil, 0
	}
	return m.objective.terms, m.objective.offset
}

func (m *Model) uniqueName(prefix string, n int, taken func(string) bool) string {
	for {
		s := fmt.Sprintf("%s%d", prefix, n)
		if !taken(s) {
			return s
		}
		n++
	}
}
