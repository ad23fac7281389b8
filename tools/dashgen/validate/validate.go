// Package validate checks generated dashboards and rule files: every PromQL
// expression must parse and reference only known metric names.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/fundgrube-watcher/tools/dashgen/rules"
)

// Result collects the problems found in one artifact.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r *Result) Ok() bool { return len(r.Errors) == 0 }

// histogram and summary series suffixes that resolve to their base metric.
var seriesSuffixes = []string{"_bucket", "_sum", "_count"}

// Expr parses expr and records unknown metric references under the given
// location.
func (r *Result) Expr(where, expr string, known map[string]bool) {
	if strings.TrimSpace(expr) == "" {
		r.Warnings = append(r.Warnings, where+": empty expression")
		return
	}

	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", where, err))
		return
	}

	for _, name := range MetricNames(parsed) {
		if !isKnown(name, known) {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: unknown metric %q", where, name))
		}
	}
}

// MetricNames returns the metric names selected by a parsed expression in
// the order they appear.
func MetricNames(expr parser.Expr) []string {
	var names []string
	parser.Inspect(expr, func(node parser.Node, _ []parser.Node) error {
		if vs, ok := node.(*parser.VectorSelector); ok && vs.Name != "" {
			names = append(names, vs.Name)
		}
		return nil
	})
	return names
}

func isKnown(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range seriesSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

// dashboardJSON is the subset of the Grafana dashboard model the validator
// walks.
type dashboardJSON struct {
	Panels []panelJSON `json:"panels"`
}

type panelJSON struct {
	Title   string      `json:"title"`
	Panels  []panelJSON `json:"panels"`
	Targets []struct {
		RefID string `json:"refId"`
		Expr  string `json:"expr"`
	} `json:"targets"`
}

// Dashboard validates every query target in dash, including panels nested in
// rows.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var r Result

	data, err := json.Marshal(dash)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("encoding dashboard: %v", err))
		return r
	}

	var doc dashboardJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("decoding dashboard: %v", err))
		return r
	}

	for _, p := range doc.Panels {
		r.panel(p, known)
	}
	return r
}

func (r *Result) panel(p panelJSON, known map[string]bool) {
	for _, t := range p.Targets {
		r.Expr(fmt.Sprintf("panel %q target %s", p.Title, t.RefID), t.Expr, known)
	}
	for _, child := range p.Panels {
		r.panel(child, known)
	}
}

// Rules validates every rule expression in cr. Recording rule names become
// known metrics for the rules that follow them.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var r Result

	scope := make(map[string]bool, len(known))
	for k, v := range known {
		scope[k] = v
	}

	for _, g := range cr.Spec.Groups {
		for _, rule := range g.Rules {
			name := rule.Name()
			if name == "" {
				r.Errors = append(r.Errors, fmt.Sprintf("group %s: rule without record or alert name", g.Name))
				continue
			}
			r.Expr(fmt.Sprintf("group %s rule %s", g.Name, name), rule.Expr, scope)
			if rule.Record != "" {
				scope[rule.Record] = true
			}
		}
	}
	return r
}
