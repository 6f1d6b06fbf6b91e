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

package flpmodel

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	log "github.com/golang/glog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/operations-research/flp/flp/go/instance"
	"github.com/operations-research/flp/flp/go/mip"
)

// NoSolution is the objective reported when the solve did not end with an optimal solution.
const NoSolution = -1

// Facility is an open facility with the customers it serves, in increasing order.
type Facility struct {
	ID        int
	Customers []int
}

// Solution is an optimal assignment of customers to open facilities.
type Solution struct {
	Objective float64
	// Facilities lists the open facilities in increasing id order.
	Facilities []Facility
}

// Assignment returns the facility serving each customer.
func (s *Solution) Assignment() map[int]int {
	a := make(map[int]int)
	for _, f := range s.Facilities {
		for _, i := range f.Customers {
			a[i] = f.ID
		}
	}
	return a
}

// Load returns the demand served by facility j, zero if it is closed.
func (s *Solution) Load(inst *instance.Instance, j int) float64 {
	var load float64
	for _, f := range s.Facilities {
		if f.ID != j {
			continue
		}
		for _, i := range f.Customers {
			load += inst.Demand(i)
		}
	}
	return load
}

// Verify checks that every customer of `inst` is served by exactly one open facility and that no
// facility serves more than its capacity.
func (s *Solution) Verify(inst *instance.Instance) error {
	served := make([]int, inst.N())
	for _, f := range s.Facilities {
		if f.ID < 0 || f.ID >= inst.H() {
			return fmt.Errorf("unknown facility %d", f.ID)
		}
		var load float64
		for _, i := range f.Customers {
			if i < 0 || i >= inst.N() {
				return fmt.Errorf("facility %d serves unknown customer %d", f.ID, i)
			}
			served[i]++
			load += inst.Demand(i)
		}
		if load > inst.Capacity(f.ID)+1e-6 {
			return fmt.Errorf("facility %d serves %v, above its capacity %v", f.ID, load, inst.Capacity(f.ID))
		}
	}
	for i, n := range served {
		if n != 1 {
			return fmt.Errorf("customer %d is served %d times", i, n)
		}
	}
	return nil
}

// Outcome is the terminal state of a solve. Solution is only set when Status is mip.Optimal, and
// Err only when Status is mip.Error.
type Outcome struct {
	Status mip.Status
	// Objective is the objective value of the solution, or NoSolution.
	Objective float64
	Solution  *Solution
	Err       error
	// WallTime is the time spent in the solver.
	WallTime time.Duration
}

// Cost returns the objective rounded to the nearest integer, or NoSolution.
func (o Outcome) Cost() int64 {
	if o.Solution == nil {
		return NoSolution
	}
	return int64(math.Round(o.Objective))
}

// Solve solves the model once and extracts the solution. A textual report of the outcome is
// written to the output configured in Options.
//
// Infeasible and unbounded models are reported through the Status of the outcome. Solver failures
// and models that cannot be solved (construction errors, closed models) give a mip.Error outcome.
func (fm *Model) Solve() Outcome {
	o := fm.solve()
	if err := WriteReport(fm.out, o); err != nil {
		log.Warningf("writing solution report: %v", err)
	}
	return o
}

func (fm *Model) solve() Outcome {
	switch {
	case fm.closed:
		return errorOutcome(ErrClosed)
	case fm.err != nil:
		return errorOutcome(fm.err)
	}

	start := time.Now()
	res, err := callSolver(fm.solver, fm.mip)
	elapsed := time.Since(start)
	log.V(1).Infof("solve of model %q took %v", fm.mip.Name(), elapsed)
	if err == nil && res == nil {
		err = errors.New("solver returned no response")
	}
	if err != nil {
		log.Errorf("Error solving model: %v", err)
		o := errorOutcome(err)
		o.WallTime = elapsed
		return o
	}
	if res.Status != mip.Optimal {
		log.Infof("model %q ended with status %v", fm.mip.Name(), res.Status)
		return Outcome{Status: res.Status, Objective: NoSolution, WallTime: elapsed}
	}

	sol := &Solution{Objective: res.ObjectiveValue}
	for j := 0; j < fm.h; j++ {
		if !mip.SolutionBooleanValue(res, fm.Open(j)) {
			continue
		}
		f := Facility{ID: j}
		for i := 0; i < fm.n; i++ {
			if mip.SolutionBooleanValue(res, fm.Assign(i, j)) {
				f.Customers = append(f.Customers, i)
			}
		}
		sol.Facilities = append(sol.Facilities, f)
	}
	return Outcome{Status: mip.Optimal, Objective: res.ObjectiveValue, Solution: sol, WallTime: elapsed}
}

// callSolver runs s on m and turns a panic of the solver into an error.
func callSolver(s mip.Solver, m *mip.Model) (res *mip.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("solver failed: %v", r)
		}
	}()
	return s.Solve(m)
}

func errorOutcome(err error) Outcome {
	return Outcome{Status: mip.Error, Objective: NoSolution, Err: err}
}

// WriteReport writes the human-readable report of `o`: the objective and, for each open facility,
// the customers it serves.
func WriteReport(w io.Writer, o Outcome) error {
	var sb strings.Builder
	switch {
	case o.Status == mip.Optimal && o.Solution != nil:
		fmt.Fprintf(&sb, "Solution with costs/distance of %s\n", strconv.FormatFloat(o.Objective, 'f', -1, 64))
		for _, f := range o.Solution.Facilities {
			fmt.Fprintf(&sb, "\tFacility %d with customers:", f.ID)
			for _, i := range f.Customers {
				fmt.Fprintf(&sb, " %d", i)
			}
			sb.WriteString("\n")
		}
	case o.Status == mip.Error:
		fmt.Fprintf(&sb, "Error solving model: %v\n", o.Err)
	case o.Status == mip.Infeasible:
		sb.WriteString("No feasible solution found\n")
	default:
		fmt.Fprintf(&sb, "No feasible solution found (%v)\n", o.Status)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// AsStruct returns the outcome as a structpb.Struct with the fields `status`, `objective`,
// `wall_time`, `error` (on errors) and `facilities` (on optimal solutions).
func (o Outcome) AsStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"status":    o.Status.String(),
		"objective": o.Objective,
		"wall_time": o.WallTime.String(),
	}
	if o.Err != nil {
		fields["error"] = o.Err.Error()
	}
	if o.Solution != nil {
		facilities := make([]any, 0, len(o.Solution.Facilities))
		for _, f := range o.Solution.Facilities {
			customers := make([]any, len(f.Customers))
			for k, i := range f.Customers {
				customers[k] = i
			}
			facilities = append(facilities, map[string]any{"id": f.ID, "customers": customers})
		}
		fields["facilities"] = facilities
	}
	return structpb.NewStruct(fields)
}

// MarshalJSON encodes AsStruct() with protojson.
func (o Outcome) MarshalJSON() ([]byte, error) {
	s, err := o.AsStruct()
	if err != nil {
		return nil, fmt.Errorf("converting outcome: %w", err)
	}
	return protojson.MarshalOptions{Multiline: true}.Marshal(s)
}
