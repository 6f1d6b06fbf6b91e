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

package mip

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustBoolVar(t *testing.T, m *Model, name string) Variable {
	t.Helper()
	v, err := m.NewBoolVar(name)
	if err != nil {
		t.Fatalf("NewBoolVar(%q) returned with unexpected error %v", name, err)
	}
	return v
}

func TestVar_NameAndIndex(t *testing.T) {
	m := NewModel("vars")

	x := mustBoolVar(t, m, "x")
	y := mustBoolVar(t, m, "")
	z, err := m.NewVar(-1, 5, false, "z")
	if err != nil {
		t.Fatalf("NewVar() returned with unexpected error %v", err)
	}

	if got, want := x.Name(), "x"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
	if got, want := y.Name(), "v1"; got != want {
		t.Errorf("Name() of unnamed variable = %q, want %q", got, want)
	}
	if got, want := z.Index(), VarIndex(2); got != want {
		t.Errorf("Index() = %v, want %v", got, want)
	}
	if !x.IsBinary() || z.IsBinary() || z.IsInteger() {
		t.Errorf("IsBinary()/IsInteger() = (%v, %v, %v), want (true, false, false)", x.IsBinary(), z.IsBinary(), z.IsInteger())
	}
	lb, ub := z.Bounds()
	if lb != -1 || ub != 5 {
		t.Errorf("Bounds() = (%v, %v), want (-1, 5)", lb, ub)
	}
	if got, ok := m.LookupVar("z"); !ok || got.Index() != z.Index() {
		t.Errorf("LookupVar(z) = (%v, %v), want (%v, true)", got.Index(), ok, z.Index())
	}
	if _, ok := m.LookupVar("missing"); ok {
		t.Errorf("LookupVar(missing) found a variable")
	}
	if got, want := m.NumVariables(), 3; got != want {
		t.Errorf("NumVariables() = %v, want %v", got, want)
	}
}

func TestVar_DuplicateName(t *testing.T) {
	m := NewModel("dup")
	mustBoolVar(t, m, "x")

	_, err := m.NewBoolVar("x")
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("NewBoolVar(x) twice returned error %v, want %v", err, ErrDuplicateName)
	}
	if got, want := m.NumVariables(), 1; got != want {
		t.Errorf("NumVariables() = %v, want %v", got, want)
	}
}

func TestVar_InvalidBounds(t *testing.T) {
	testCases := []struct {
		name   string
		lb, ub float64
	}{
		{name: "NaN lower", lb: math.NaN(), ub: 1},
		{name: "NaN upper", lb: 0, ub: math.NaN()},
		{name: "+inf lower", lb: math.Inf(1), ub: math.Inf(1)},
		{name: "-inf upper", lb: math.Inf(-1), ub: math.Inf(-1)},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			m := NewModel("bounds")
			if _, err := m.NewVar(test.lb, test.ub, false, "x"); !errors.Is(err, ErrInvalidBounds) {
				t.Errorf("NewVar(%v, %v) returned error %v, want %v", test.lb, test.ub, err, ErrInvalidBounds)
			}
		})
	}
}

func TestConstraint_Terms(t *testing.T) {
	m := NewModel("terms")
	x := mustBoolVar(t, m, "x")
	y := mustBoolVar(t, m, "y")
	z := mustBoolVar(t, m, "z")

	testCases := []struct {
		name      string
		expr      LinearArgument
		lb, ub    float64
		wantTerms []Term
		wantLb    float64
		wantUb    float64
	}{
		{
			name:      "single variable",
			expr:      x,
			lb:        math.Inf(-1),
			ub:        1,
			wantTerms: []Term{{Var: 0, Coeff: 1}},
			wantLb:    math.Inf(-1),
			wantUb:    1,
		},
		{
			name:      "repeated variables are merged",
			expr:      NewLinearExpr().AddTerm(x, 2).AddTerm(y, 3).AddTerm(x, 4),
			lb:        0,
			ub:        10,
			wantTerms: []Term{{Var: 0, Coeff: 6}, {Var: 1, Coeff: 3}},
			wantLb:    0,
			wantUb:    10,
		},
		{
			name:      "cancelled variables are dropped",
			expr:      NewLinearExpr().AddTerm(x, 2).Add(z).AddTerm(x, -2),
			lb:        1,
			ub:        1,
			wantTerms: []Term{{Var: 2, Coeff: 1}},
			wantLb:    1,
			wantUb:    1,
		},
		{
			name:      "offset moves to the bounds",
			expr:      NewLinearExpr().Add(y).AddConstant(3),
			lb:        4,
			ub:        math.Inf(1),
			wantTerms: []Term{{Var: 1, Coeff: 1}},
			wantLb:    1,
			wantUb:    math.Inf(1),
		},
		{
			name:      "nested expressions are scaled",
			expr:      NewLinearExpr().AddTerm(NewLinearExpr().AddSum(x, y).AddConstant(1), -2),
			lb:        -4,
			ub:        0,
			wantTerms: []Term{{Var: 0, Coeff: -2}, {Var: 1, Coeff: -2}},
			wantLb:    -2,
			wantUb:    2,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			c, err := m.AddConstraint(test.expr, test.lb, test.ub, "")
			if err != nil {
				t.Fatalf("AddConstraint() returned with unexpected error %v", err)
			}
			if diff := cmp.Diff(test.wantTerms, c.Terms()); diff != "" {
				t.Errorf("Terms() returned with unexpected diff (-want+got): %v", diff)
			}
			lb, ub := c.Bounds()
			if lb != test.wantLb || ub != test.wantUb {
				t.Errorf("Bounds() = (%v, %v), want (%v, %v)", lb, ub, test.wantLb, test.wantUb)
			}
		})
	}
}

func TestConstraint_HelpersSetBounds(t *testing.T) {
	m := NewModel("helpers")
	x := mustBoolVar(t, m, "x")

	le, err := m.AddLessOrEqual(x, 1, "le")
	if err != nil {
		t.Fatalf("AddLessOrEqual() returned with unexpected error %v", err)
	}
	ge, err := m.AddGreaterOrEqual(x, 0, "ge")
	if err != nil {
		t.Fatalf("AddGreaterOrEqual() returned with unexpected error %v", err)
	}
	eq, err := m.AddEquality(x, 1, "eq")
	if err != nil {
		t.Fatalf("AddEquality() returned with unexpected error %v", err)
	}

	type bounds struct{ Lb, Ub float64 }
	got := map[string]bounds{}
	for _, c := range []Constraint{le, ge, eq} {
		lb, ub := c.Bounds()
		got[c.Name()] = bounds{lb, ub}
	}
	want := map[string]bounds{
		"le": {math.Inf(-1), 1},
		"ge": {0, math.Inf(1)},
		"eq": {1, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Bounds() returned with unexpected diff (-want+got): %v", diff)
	}
}

func TestConstraint_MixedModels(t *testing.T) {
	m1 := NewModel("m1")
	m2 := NewModel("m2")
	x := mustBoolVar(t, m1, "x")

	if _, err := m2.AddLessOrEqual(x, 1, "c"); !errors.Is(err, ErrMixedModels) {
		t.Errorf("AddLessOrEqual() with foreign variable returned error %v, want %v", err, ErrMixedModels)
	}
	if err := m2.Minimize(x); !errors.Is(err, ErrMixedModels) {
		t.Errorf("Minimize() with foreign variable returned error %v, want %v", err, ErrMixedModels)
	}
	if got := m2.NumConstraints(); got != 0 {
		t.Errorf("NumConstraints() = %v, want 0", got)
	}
}

func TestConstraint_DuplicateNameAndReuseAfterRemoval(t *testing.T) {
	m := NewModel("names")
	x := mustBoolVar(t, m, "x")

	c, err := m.AddLessOrEqual(x, 1, "cut")
	if err != nil {
		t.Fatalf("AddLessOrEqual() returned with unexpected error %v", err)
	}
	if _, err := m.AddLessOrEqual(x, 0, "cut"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("AddLessOrEqual(cut) twice returned error %v, want %v", err, ErrDuplicateName)
	}

	m.RemoveConstraint(c)
	if _, ok := m.LookupConstraint("cut"); ok {
		t.Errorf("LookupConstraint(cut) found a removed constraint")
	}
	c2, err := m.AddLessOrEqual(x, 0, "cut")
	if err != nil {
		t.Fatalf("AddLessOrEqual(cut) after removal returned with unexpected error %v", err)
	}
	if c2.Index() == c.Index() {
		t.Errorf("constraint index %v was reused", c.Index())
	}
}

func TestRemoveConstraint_Idempotent(t *testing.T) {
	m := NewModel("remove")
	x := mustBoolVar(t, m, "x")
	y := mustBoolVar(t, m, "y")

	c1, err := m.AddLessOrEqual(NewLinearExpr().AddSum(x, y), 1, "c1")
	if err != nil {
		t.Fatalf("AddLessOrEqual() returned with unexpected error %v", err)
	}
	c2, err := m.AddEquality(x, 1, "c2")
	if err != nil {
		t.Fatalf("AddEquality() returned with unexpected error %v", err)
	}

	m.RemoveConstraint(c1)
	m.RemoveConstraint(c1)
	m.RemoveConstraint(Constraint{})
	NewModel("other").RemoveConstraint(c2)

	if got, want := m.NumConstraints(), 1; got != want {
		t.Errorf("NumConstraints() = %v, want %v", got, want)
	}
	if c1.Active() || !c2.Active() {
		t.Errorf("Active() = (%v, %v), want (false, true)", c1.Active(), c2.Active())
	}
	var names []string
	for _, c := range m.Constraints() {
		names = append(names, c.Name())
	}
	if diff := cmp.Diff([]string{"c2"}, names); diff != "" {
		t.Errorf("Constraints() returned with unexpected diff (-want+got): %v", diff)
	}
}

func TestMinimize(t *testing.T) {
	m := NewModel("objective")
	x := mustBoolVar(t, m, "x")
	y := mustBoolVar(t, m, "y")

	if m.HasObjective() {
		t.Errorf("HasObjective() = true before Minimize()")
	}
	if err := m.Minimize(NewLinearExpr().AddTerm(x, 3).AddTerm(y, -1).AddConstant(2)); err != nil {
		t.Fatalf("Minimize() returned with unexpected error %v", err)
	}
	terms, offset := m.Objective()
	if diff := cmp.Diff([]Term{{Var: 0, Coeff: 3}, {Var: 1, Coeff: -1}}, terms); diff != "" {
		t.Errorf("Objective() returned with unexpected diff (-want+got): %v", diff)
	}
	if offset != 2 {
		t.Errorf("Objective() offset = %v, want 2", offset)
	}
}

func TestSolutionValue(t *testing.T) {
	m := NewModel("values")
	x := mustBoolVar(t, m, "x")
	y := mustBoolVar(t, m, "y")
	z := mustBoolVar(t, m, "z")
	r := &Response{Status: Optimal, Values: []float64{1, 0.4}}

	if got, want := SolutionValue(r, NewLinearExpr().AddTerm(x, 3).AddTerm(y, 5).AddConstant(1)), 6.0; got != want {
		t.Errorf("SolutionValue() = %v, want %v", got, want)
	}
	if !SolutionBooleanValue(r, x) || SolutionBooleanValue(r, y) || SolutionBooleanValue(r, z) {
		t.Errorf("SolutionBooleanValue() (x, y, z) = (%v, %v, %v), want (true, false, false)",
			SolutionBooleanValue(r, x), SolutionBooleanValue(r, y), SolutionBooleanValue(r, z))
	}
}

func TestStatus_String(t *testing.T) {
	testCases := []struct {
		s    Status
		want string
	}{
		{Optimal, "OPTIMAL"},
		{Infeasible, "INFEASIBLE"},
		{Unbounded, "UNBOUNDED"},
		{Error, "ERROR"},
		{Unknown, "UNKNOWN"},
		{NotSolved, "NOT_SOLVED"},
		{Status(42), "Status(42)"},
	}
	for _, test := range testCases {
		if got := test.s.String(); got != test.want {
			t.Errorf("Status(%d).String() = %q, want %q", int32(test.s), got, test.want)
		}
	}
}
