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

// The flp_mip command solves a capacitated facility location problem read from a YAML file, or
// generated at random, and prints the open facilities with their customers.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"

	log "github.com/golang/glog"

	"github.com/operations-research/flp/flp/go/flpmodel"
	"github.com/operations-research/flp/flp/go/instance"
	"github.com/operations-research/flp/flp/go/pbsolver"
)

var (
	instancePath = flag.String("instance", "", "YAML instance file; a random instance is generated when empty")
	customers    = flag.Int("customers", 8, "number of customers of the random instance")
	facilities   = flag.Int("facilities", 3, "number of facilities of the random instance")
	seed         = flag.Int64("seed", 1, "seed of the random instance")
	exportLP     = flag.String("export_lp", "", "if set, the model is written to this file in LP format")
	output       = flag.String("output", "text", "report format: text or json")
)

func loadInstance() (*instance.Instance, error) {
	if *instancePath != "" {
		return instance.Load(*instancePath)
	}
	if *customers < 0 || *facilities < 0 {
		return nil, fmt.Errorf("invalid random instance size %dx%d", *customers, *facilities)
	}
	return instance.Random(*customers, *facilities, rand.New(rand.NewSource(*seed))), nil
}

func flpMip() error {
	inst, err := loadInstance()
	if err != nil {
		return fmt.Errorf("failed to load the instance: %w", err)
	}

	opts := flpmodel.Options{ExportPath: *exportLP}
	switch *output {
	case "text":
		opts.Out = os.Stdout
	case "json":
		opts.Out = io.Discard
	default:
		return fmt.Errorf("unknown output format %q", *output)
	}

	model := flpmodel.Build(inst, pbsolver.New(), opts)
	defer model.Close()
	if err := model.Err(); err != nil {
		return err
	}
	if err := model.AddObjective(model.CostObjective()); err != nil {
		return fmt.Errorf("failed to add the objective: %w", err)
	}

	outcome := model.Solve()
	if *output == "json" {
		b, err := outcome.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode the outcome: %w", err)
		}
		fmt.Println(string(b))
	}
	log.Infof("status %v, objective %v, solver wall time %v", outcome.Status, outcome.Objective, outcome.WallTime)
	return nil
}

func main() {
	flag.Parse()
	if err := flpMip(); err != nil {
		log.Exitf("flpMip returned with error: %v", err)
	}
}
