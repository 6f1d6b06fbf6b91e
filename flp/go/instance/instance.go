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

// Package instance holds the data of a capacitated facility location problem: the demand of each
// customer, the capacity of each facility and the cost of serving a customer from a facility.
package instance

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidInstance holds the error when the instance data is inconsistent.
var ErrInvalidInstance = errors.New("invalid instance")

// Instance is an immutable capacitated facility location problem with `N()` customers and `H()`
// facilities.
type Instance struct {
	demand   []float64
	capacity []float64
	// cost is stored row-major, cost[i*h+j] for customer i and facility j.
	cost []float64
}

// New validates the data and returns a new Instance. The slices are copied.
func New(demand, capacity []float64, cost [][]float64) (*Instance, error) {
	n, h := len(demand), len(capacity)
	for i, d := range demand {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, fmt.Errorf("demand[%d] must be a finite value >= 0 (got %v): %w", i, d, ErrInvalidInstance)
		}
	}
	for j, c := range capacity {
		if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("capacity[%d] must be a finite value >= 0 (got %v): %w", j, c, ErrInvalidInstance)
		}
	}
	if len(cost) != n {
		return nil, fmt.Errorf("cost must have one row per customer, %d rows for %d customers: %w", len(cost), n, ErrInvalidInstance)
	}
	flat := make([]float64, 0, n*h)
	for i, row := range cost {
		if len(row) != h {
			return nil, fmt.Errorf("cost[%d] must have one entry per facility, %d entries for %d facilities: %w", i, len(row), h, ErrInvalidInstance)
		}
		for j, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("cost[%d][%d] must be finite (got %v): %w", i, j, c, ErrInvalidInstance)
			}
		}
		flat = append(flat, row...)
	}
	return &Instance{
		demand:   append([]float64(nil), demand...),
		capacity: append([]float64(nil), capacity...),
		cost:     flat,
	}, nil
}

// N returns the number of customers.
func (inst *Instance) N() int {
	return len(inst.demand)
}

// H returns the number of facilities.
func (inst *Instance) H() int {
	return len(inst.capacity)
}

// Demand returns the demand of customer i.
func (inst *Instance) Demand(i int) float64 {
	return inst.demand[i]
}

// Capacity returns the capacity of facility j.
func (inst *Instance) Capacity(j int) float64 {
	return inst.capacity[j]
}

// Cost returns the cost of serving customer i from facility j.
func (inst *Instance) Cost(i, j int) float64 {
	return inst.cost[i*len(inst.capacity)+j]
}

// TotalDemand returns the sum of all customer demands.
func (inst *Instance) TotalDemand() float64 {
	var s float64
	for _, d := range inst.demand {
		s += d
	}
	return s
}

// TotalCapacity returns the sum of all facility capacities.
func (inst *Instance) TotalCapacity() float64 {
	var s float64
	for _, c := range inst.capacity {
		s += c
	}
	return s
}

// document is the YAML layout of an instance file.
type document struct {
	Demand   []float64   `yaml:"demand"`
	Capacity []float64   `yaml:"capacity"`
	Cost     [][]float64 `yaml:"cost"`
}

// Parse reads an instance from a YAML document of the form:
//
//	demand: [5, 7]
//	capacity: [10, 12, 8]
//	cost:
//	  - [3, 4, 9]
//	  - [6, 2, 1]
func Parse(r io.Reader) (*Instance, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil, nil, nil)
		}
		return nil, fmt.Errorf("decoding instance: %w", err)
	}
	return New(doc.Demand, doc.Capacity, doc.Cost)
}

// Load reads an instance from the YAML file at `path`.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	inst, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// Random returns an instance with integral data drawn from `rng`. Demands are in [1, 20], costs in
// [1, 100], and capacities are drawn so that the expected total capacity is twice the total demand.
func Random(n, h int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("random instance requires a non-nil rng")
	}
	if n < 0 || h < 0 {
		panic(fmt.Sprintf("invalid instance size %dx%d", n, h))
	}
	demand := make([]float64, n)
	var total float64
	for i := range demand {
		demand[i] = float64(1 + rng.Intn(20))
		total += demand[i]
	}
	capacity := make([]float64, h)
	if h > 0 {
		mean := math.Ceil(2 * total / float64(h))
		for j := range capacity {
			capacity[j] = math.Floor(mean/2) + float64(rng.Intn(int(mean)+1))
		}
	}
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, h)
		for j := range cost[i] {
			cost[i][j] = float64(1 + rng.Intn(100))
		}
	}
	inst, err := New(demand, capacity, cost)
	if err != nil {
		panic(err)
	}
	return inst
}
