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
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// WriteLP writes the model to `w` in CPLEX LP format. Only active constraints are written.
//
// Ranged constraints are split into two rows suffixed with `_lb` and `_ub`.
func (m *Model) WriteLP(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\\ Model %s\n", m.name)
	sb.WriteString("Minimize\n obj:")
	terms, offset := m.Objective()
	m.writeTerms(&sb, terms)
	if offset != 0 {
		sb.WriteString(" " + signed(offset, len(terms) == 0))
	}
	sb.WriteString("\n")

	sb.WriteString("Subject To\n")
	for _, c := range m.Constraints() {
		p := m.constrs[c.ind]
		if len(p.terms) == 0 {
			fmt.Fprintf(&sb, "\\ %s: empty\n", p.name)
			continue
		}
		switch {
		case p.lb == p.ub:
			m.writeRow(&sb, p.name, p.terms, "=", p.lb)
		case math.IsInf(p.lb, -1) && math.IsInf(p.ub, 1):
			fmt.Fprintf(&sb, "\\ %s: free\n", p.name)
		case math.IsInf(p.lb, -1):
			m.writeRow(&sb, p.name, p.terms, "<=", p.ub)
		case math.IsInf(p.ub, 1):
			m.writeRow(&sb, p.name, p.terms, ">=", p.lb)
		default:
			m.writeRow(&sb, p.name+"_lb", p.terms, ">=", p.lb)
			m.writeRow(&sb, p.name+"_ub", p.terms, "<=", p.ub)
		}
	}

	var binaries, generals []string
	sb.WriteString("Bounds\n")
	for _, v := range m.vars {
		binary := v.integer && v.lb == 0 && v.ub == 1
		switch {
		case binary:
		case math.IsInf(v.lb, -1) && math.IsInf(v.ub, 1):
			fmt.Fprintf(&sb, " %s free\n", v.name)
		case v.lb == 0 && math.IsInf(v.ub, 1):
		default:
			fmt.Fprintf(&sb, " %s <= %s <= %s\n", formatBound(v.lb), v.name, formatBound(v.ub))
		}
		switch {
		case binary:
			binaries = append(binaries, v.name)
		case v.integer:
			generals = append(generals, v.name)
		}
	}
	if len(binaries) > 0 {
		sb.WriteString("Binaries\n")
		for _, n := range binaries {
			sb.WriteString(" " + n + "\n")
		}
	}
	if len(generals) > 0 {
		sb.WriteString("Generals\n")
		for _, n := range generals {
			sb.WriteString(" " + n + "\n")
		}
	}
	sb.WriteString("End\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// ExportLP writes the model in CPLEX LP format to the file at `path`.
func (m *Model) ExportLP(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating LP file: %w", err)
	}
	if err := m.WriteLP(f); err != nil {
		f.Close()
		return fmt.Errorf("writing LP file %s: %w", path, err)
	}
	return f.Close()
}

func (m *Model) writeRow(sb *strings.Builder, name string, terms []Term, sense string, rhs float64) {
	fmt.Fprintf(sb, " %s:", name)
	m.writeTerms(sb, terms)
	fmt.Fprintf(sb, " %s %s\n", sense, formatFloat(rhs))
}

func (m *Model) writeTerms(sb *strings.Builder, terms []Term) {
	for i, t := range terms {
		name := m.vars[t.Var].name
		switch t.Coeff {
		case 1:
			if i == 0 {
				sb.WriteString(" " + name)
			} else {
				sb.WriteString(" + " + name)
			}
		case -1:
			sb.WriteString(" - " + name)
		default:
			sb.WriteString(" " + signed(t.Coeff, i == 0) + " " + name)
		}
	}
}

// signed formats `c` with an explicit sign operator, omitting a leading "+" on the first term.
func signed(c float64, first bool) string {
	switch {
	case c < 0:
		return "- " + formatFloat(-c)
	case first:
		return formatFloat(c)
	default:
		return "+ " + formatFloat(c)
	}
}

func formatBound(b float64) string {
	switch {
	case math.IsInf(b, 1):
		return "+inf"
	case math.IsInf(b, -1):
		return "-inf"
	}
	return formatFloat(b)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
