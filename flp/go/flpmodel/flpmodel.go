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

// Package flpmodel builds the mixed-integer model of a capacitated facility location problem and
// reports the solution found by a mip.Solver.
//
// The model has one binary variable `y(j)` per facility, true when facility j is open, and one
// binary variable `x(i,j)` per customer and facility, true when customer i is served by facility
// j. Two families of constraints are generated:
//
//	Constraint1_i: sum_j x(i,j) == 1                                 (every customer is served once)
//	Constraint2_j: sum_i demand[i]*x(i,j) - capacity[j]*y(j) <= 0    (capacity, only when open)
//
// The objective is installed by the caller with AddObjective, usually with CostObjective.
package flpmodel

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/golang/glog"

	"github.com/operations-research/flp/flp/go/instance"
	"github.com/operations-research/flp/flp/go/mip"
)

var (
	// ErrModelConstruction holds the error when the model could not be fully built.
	ErrModelConstruction = errors.New("error creating model")
	// ErrClosed holds the error when a closed model is used.
	ErrClosed = errors.New("model is closed")
)

// Options configures Build.
type Options struct {
	// Name of the underlying mip model. Defaults to "flp".
	Name string
	// MIP, if set, is the model the variables and constraints are added to instead of a new one.
	// Names already declared in it make Build fail.
	MIP *mip.Model
	// ExportPath, if set, is the file the built model is written to in LP format. Export failures
	// are logged and do not affect the model.
	ExportPath string
	// Out receives the solution report written by Solve. Defaults to os.Stdout.
	Out io.Writer
}

// Model is a facility location model together with the solver that solves it. It owns the mip
// model and the solver handle until Close is called.
type Model struct {
	inst   *instance.Instance
	mip    *mip.Model
	solver mip.Solver
	out    io.Writer
	n, h   int

	open     []mip.Variable
	assign   []mip.Variable // assign[i*h+j]
	coverage []mip.Constraint
	capacity []mip.Constraint

	// The first and only the first error is kept.
	err    error
	closed bool
}

// Build creates the variables and the coverage and capacity constraints of `inst`.
//
// Build never fails: errors are logged and recorded, and the partially built model is returned.
// Callers must check Err() or Solvable() before solving.
func Build(inst *instance.Instance, solver mip.Solver, opts Options) *Model {
	if opts.Name == "" {
		opts.Name = "flp"
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.MIP == nil {
		opts.MIP = mip.NewModel(opts.Name)
	}
	fm := &Model{
		inst:   inst,
		mip:    opts.MIP,
		solver: solver,
		out:    opts.Out,
	}
	if err := fm.build(); err != nil {
		fm.setErr(err)
		return fm
	}
	name := fm.mip.Name()
	log.V(1).Infof("built model %q: %d variables, %d constraints", name, fm.mip.NumVariables(), fm.mip.NumConstraints())

	if opts.ExportPath != "" {
		if err := fm.mip.ExportLP(opts.ExportPath); err != nil {
			log.Warningf("exporting model %q: %v", name, err)
		} else {
			log.V(1).Infof("exported model %q to %s", name, opts.ExportPath)
		}
	}
	return fm
}

func (fm *Model) build() error {
	if fm.inst == nil {
		return errors.New("nil instance")
	}
	if fm.solver == nil {
		return errors.New("nil solver")
	}
	inst := fm.inst
	fm.n, fm.h = inst.N(), inst.H()

	// Variables.
	fm.open = make([]mip.Variable, 0, fm.h)
	for j := 0; j < fm.h; j++ {
		y, err := fm.mip.NewBoolVar(fmt.Sprintf("y(%d)", j))
		if err != nil {
			return err
		}
		fm.open = append(fm.open, y)
	}
	fm.assign = make([]mip.Variable, 0, fm.n*fm.h)
	for i := 0; i < fm.n; i++ {
		for j := 0; j < fm.h; j++ {
			x, err := fm.mip.NewBoolVar(fmt.Sprintf("x(%d,%d)", i, j))
			if err != nil {
				return err
			}
			fm.assign = append(fm.assign, x)
		}
	}

	// All customers must be served.
	for i := 0; i < fm.n; i++ {
		expr := mip.NewLinearExpr()
		for j := 0; j < fm.h; j++ {
			expr.Add(fm.Assign(i, j))
		}
		c, err := fm.mip.AddEquality(expr, 1, fmt.Sprintf("Constraint1_%d", i))
		if err != nil {
			return err
		}
		fm.coverage = append(fm.coverage, c)
	}

	// The capacity of a facility cannot be surpassed, and is zero when it is closed.
	for j := 0; j < fm.h; j++ {
		expr := mip.NewLinearExpr()
		for i := 0; i < fm.n; i++ {
			expr.AddTerm(fm.Assign(i, j), inst.Demand(i))
		}
		expr.AddTerm(fm.open[j], -inst.Capacity(j))
		c, err := fm.mip.AddLessOrEqual(expr, 0, fmt.Sprintf("Constraint2_%d", j))
		if err != nil {
			return err
		}
		fm.capacity = append(fm.capacity, c)
	}
	return nil
}

func (fm *Model) setErr(err error) {
	err = fmt.Errorf("%w: %w", ErrModelConstruction, err)
	log.Errorf("%v", err)
	if fm.err == nil {
		fm.err = err
	}
}

// Err returns the first error met while building the model.
func (fm *Model) Err() error {
	return fm.err
}

// Solvable returns whether the model was fully built and is not closed.
func (fm *Model) Solvable() bool {
	return fm.err == nil && !fm.closed
}

// Instance returns the instance the model was built from.
func (fm *Model) Instance() *instance.Instance {
	return fm.inst
}

// MIP returns the underlying mip model. It stays readable after Close.
func (fm *Model) MIP() *mip.Model {
	return fm.mip
}

// Open returns the variable that is true when facility j is open.
func (fm *Model) Open(j int) mip.Variable {
	return fm.open[j]
}

// Assign returns the variable that is true when customer i is served by facility j.
func (fm *Model) Assign(i, j int) mip.Variable {
	return fm.assign[i*fm.h+j]
}

// CoverageConstraints returns the `Constraint1_i` constraints, one per customer.
func (fm *Model) CoverageConstraints() []mip.Constraint {
	return fm.coverage
}

// CapacityConstraints returns the `Constraint2_j` constraints, one per facility.
func (fm *Model) CapacityConstraints() []mip.Constraint {
	return fm.capacity
}

// CostObjective returns the total assignment cost sum_ij cost[i][j]*x(i,j).
func (fm *Model) CostObjective() *mip.LinearExpr {
	expr := mip.NewLinearExpr()
	if len(fm.assign) != fm.n*fm.h {
		return expr
	}
	for i := 0; i < fm.n; i++ {
		for j := 0; j < fm.h; j++ {
			expr.AddTerm(fm.Assign(i, j), fm.inst.Cost(i, j))
		}
	}
	return expr
}

// AddObjective installs `obj` as the minimization objective, replacing any previous one.
func (fm *Model) AddObjective(obj mip.LinearArgument) error {
	if fm.closed {
		return ErrClosed
	}
	if err := fm.mip.Minimize(obj); err != nil {
		log.Errorf("adding objective: %v", err)
		return err
	}
	return nil
}

// AddConstraint adds the constraint `expr <= bound` and returns a handle to remove it later.
func (fm *Model) AddConstraint(expr mip.LinearArgument, bound float64) (mip.Constraint, error) {
	if fm.closed {
		return mip.Constraint{}, ErrClosed
	}
	c, err := fm.mip.AddLessOrEqual(expr, bound, "")
	if err != nil {
		log.Errorf("adding constraint: %v", err)
	}
	return c, err
}

// RemoveConstraint removes a constraint added with AddConstraint. Removing a constraint twice is a
// no-op.
func (fm *Model) RemoveConstraint(c mip.Constraint) {
	if fm.closed {
		return
	}
	fm.mip.RemoveConstraint(c)
}

// Close releases the model and the solver. If the solver implements io.Closer it is closed. Calls
// after the first one have no effect.
func (fm *Model) Close() error {
	if fm.closed {
		return nil
	}
	fm.closed = true
	var err error
	if c, ok := fm.solver.(io.Closer); ok {
		err = c.Close()
	}
	fm.solver = nil
	return err
}
