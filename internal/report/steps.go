package report

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/baseguide/baseguide/internal/guidance"
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentenceSplit   = regexp.MustCompile(`[.;]`)
	fieldRefPattern = regexp.MustCompile(`\{([^}]+)\}`)
)

func (b *Builder) duplicationSteps(steps []guidance.Step) []string {
	lines := []string{"## Duplication Steps", ""}

	ordered := make([]guidance.Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for i, step := range ordered {
		lines = append(lines, stepSection(step)...)
		if i < len(ordered)-1 {
			lines = append(lines, "")
		}
	}
	return lines
}

func stepSection(step guidance.Step) []string {
	lines := []string{fmt.Sprintf("### Step %d: %s", step.Order, step.Title), ""}

	complexity := stepComplexity(step)
	lines = append(lines, "- **Complexity:** "+complexity)
	lines = append(lines, "- **Estimated time:** "+formatTimeEstimate(stepTimeEstimate(step, complexity)))
	lines = append(lines, "- **Execution:** "+executionNote(step))

	if tasks := extractTasks(step.Description); len(tasks) > 0 {
		lines = append(lines, "", "Tasks:")
		for _, task := range tasks {
			lines = append(lines, "- [ ] "+task)
		}
	}

	if step.Description != "" {
		lines = append(lines, "", strings.TrimSpace(step.Description))
	}

	if len(step.Prerequisites) > 0 {
		lines = append(lines, "", "**Prerequisites**")
		for _, item := range step.Prerequisites {
			lines = append(lines, "- "+item)
		}
	}

	return lines
}

// stepComplexity scores a step by description length and prerequisite
// count: under 2.5 Low, under 4.5 Moderate, else High.
func stepComplexity(step guidance.Step) string {
	words := len(wordPattern.FindAllString(step.Description, -1))
	score := float64(words)/12 + float64(len(step.Prerequisites))*0.75
	switch {
	case score < 2.5:
		return "Low"
	case score < 4.5:
		return "Moderate"
	default:
		return "High"
	}
}

// stepTimeEstimate returns minutes rounded up to the nearest 5, floor 15.
func stepTimeEstimate(step guidance.Step, complexity string) int {
	words := len(wordPattern.FindAllString(step.Description, -1))
	base := 20 + float64(words)*1.1 + float64(len(step.Prerequisites))*10

	bonus := 20.0
	switch complexity {
	case "Low":
		bonus = 10
	case "Moderate":
		bonus = 25
	case "High":
		bonus = 45
	}

	estimate := int(math.Ceil((base+bonus)/5.0)) * 5
	if estimate < 15 {
		estimate = 15
	}
	return estimate
}

func executionNote(step guidance.Step) string {
	switch len(step.Prerequisites) {
	case 0:
		return "Parallel-friendly once base access is granted"
	case 1:
		return "Sequential - wait for " + step.Prerequisites[0]
	default:
		return "Sequential - depends on " + strings.Join(step.Prerequisites, ", ")
	}
}

// extractTasks splits a description on sentence boundaries and keeps
// fragments longer than two words as checklist items.
func extractTasks(description string) []string {
	if description == "" {
		return nil
	}

	var tasks []string
	for _, fragment := range sentenceSplit.Split(description, -1) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		if first, size := utf8.DecodeRuneInString(fragment); size > 0 {
			fragment = string(unicode.ToUpper(first)) + fragment[size:]
		}
		if len(strings.Fields(fragment)) > 2 {
			tasks = append(tasks, fragment)
		}
	}
	return tasks
}

// describeFormula heuristically summarizes what a formula does based on
// the functions it calls.
func describeFormula(formula string) string {
	upper := strings.ToUpper(formula)
	var descriptors []string

	if strings.Contains(upper, "IF(") || strings.Contains(upper, "SWITCH(") {
		descriptors = append(descriptors, "Evaluates conditions to choose outputs")
	}
	if containsAny(upper, []string{"SUM(", "AVERAGE(", "COUNT(", "MIN(", "MAX("}) {
		descriptors = append(descriptors, "Aggregates numeric values")
	}
	if containsAny(upper, []string{"DATETIME", "DATE", "NOW(", "TODAY("}) {
		descriptors = append(descriptors, "Works with dates or times")
	}
	if containsAny(upper, []string{"FIND(", "SEARCH(", "REGEX"}) {
		descriptors = append(descriptors, "Checks text content")
	}
	if strings.Contains(formula, "+") || strings.Contains(formula, "&") {
		descriptors = append(descriptors, "Combines multiple fields")
	}

	if len(descriptors) == 0 {
		return "Derives a calculated value from the referenced fields"
	}
	return strings.Join(descriptors, "; ")
}

// referencedFields extracts {Field Name} references in order of first
// appearance, deduplicated.
func referencedFields(formula string) []string {
	seen := make(map[string]struct{})
	var ordered []string
	for _, match := range fieldRefPattern.FindAllStringSubmatch(formula, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		ordered = append(ordered, name)
	}
	return ordered
}
