package collaboration

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const maxListItems = 5

// RenderContext formats hire results as a markdown block for the persona
// prompt. Keys are sorted so the output is stable.
func RenderContext(results []JobResult) string {
	if len(results) == 0 {
		return ""
	}
	parts := []string{"## External Agent Collaboration Results\n"}
	for _, r := range results {
		name := r.AgentName
		if name == "" {
			name = "Unknown"
		}
		parts = append(parts,
			"### "+name,
			"**Task:** "+r.TaskDescription,
			"**Status:** "+r.Status,
			fmt.Sprintf("**Cost:** $%.2f (paid via Hydra L2)", r.Cost),
		)
		if len(r.Result) > 0 {
			parts = append(parts, "**Results:**")
			keys := make([]string, 0, len(r.Result))
			for k := range r.Result {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				parts = append(parts, renderField(k, r.Result[k])...)
			}
		}
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

func renderField(key string, v interface{}) []string {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return []string{fmt.Sprintf("- %s: %s", key, scalar(v))}
	}
	lines := []string{fmt.Sprintf("- %s:", key)}
	for i := 0; i < rv.Len() && i < maxListItems; i++ {
		lines = append(lines, "  - "+scalar(rv.Index(i).Interface()))
	}
	return lines
}

func scalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}, map[string]float64, map[string]int, map[string]string:
		b, err := json.Marshal(t)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}
