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
	"fmt"
	"time"
)

// Status is the terminal state reported by a solver.
type Status int32

// Possible values of Status.
const (
	NotSolved Status = iota
	Optimal
	Infeasible
	Unbounded
	Error
	Unknown
)

var statusNames = map[Status]string{
	NotSolved:  "NOT_SOLVED",
	Optimal:    "OPTIMAL",
	Infeasible: "INFEASIBLE",
	Unbounded:  "UNBOUNDED",
	Error:      "ERROR",
	Unknown:    "UNKNOWN",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// Response is the result of a solve.
type Response struct {
	Status Status
	// ObjectiveValue is only meaningful when Status is Optimal.
	ObjectiveValue float64
	// Values holds the value of each variable, indexed by VarIndex.
	Values   []float64
	WallTime time.Duration
}

func (r *Response) value(ind VarIndex) float64 {
	if r == nil || int(ind) >= len(r.Values) {
		return 0
	}
	return r.Values[ind]
}

// Solver is the capability a mixed-integer solver must offer: solve a model once and report the
// status, the objective value and the value of every variable.
//
// Solve returns an error when the solver itself fails. Infeasible or unbounded models are not
// errors; they are reported through Response.Status.
type Solver interface {
	Solve(m *Model) (*Response, error)
}

// SolutionValue returns the value of LinearArgument `la` in the response.
func SolutionValue(r *Response, la LinearArgument) float64 {
	return la.evaluateSolutionValue(r)
}

// SolutionBooleanValue returns whether the value of `v` in the response is above 0.5.
func SolutionBooleanValue(r *Response, v Variable) bool {
	return v.evaluateSolutionValue(r) > 0.5
}
