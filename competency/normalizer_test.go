package competency

import (
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Known alias - snake case",
			input:    "technical_skills",
			expected: "Technical Skills",
		},
		{
			name:     "Known alias - synonym",
			input:    "quality",
			expected: "Quality Focus",
		},
		{
			name:     "Alias lookup is case-insensitive",
			input:    "Problem_Solving",
			expected: "Problem Solving",
		},
		{
			name:     "Alias with surrounding whitespace",
			input:    "  teamwork  ",
			expected: "Teamwork",
		},
		{
			name:     "Unknown key gets title-cased",
			input:    "customer_empathy",
			expected: "Customer Empathy",
		},
		{
			name:     "Unknown key with hyphens",
			input:    "self-management",
			expected: "Self Management",
		},
		{
			name:     "Already canonical label passes through",
			input:    "Technical Skills",
			expected: "Technical Skills",
		},
		{
			name:     "Reliability folds into Time Management",
			input:    "reliability",
			expected: "Time Management",
		},
		{
			name:     "Initiative folds into Leadership",
			input:    "initiative",
			expected: "Leadership",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.input); got != tt.expected {
				t.Errorf("Canonicalize(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]int
		expected map[string]int
	}{
		{
			name:     "Nil input passes through",
			input:    nil,
			expected: nil,
		},
		{
			name:     "Simple relabeling",
			input:    map[string]int{"technical_skills": 4, "communication": 5},
			expected: map[string]int{"Technical Skills": 4, "Communication": 5},
		},
		{
			name:     "Colliding aliases merge by rounded mean",
			input:    map[string]int{"quality": 3, "quality_focus": 5},
			expected: map[string]int{"Quality Focus": 4},
		},
		{
			name:     "Half scores round up",
			input:    map[string]int{"leadership": 4, "initiative": 5},
			expected: map[string]int{"Leadership": 5},
		},
		{
			name:     "Blank keys are dropped",
			input:    map[string]int{"": 3, "   ": 5, "teamwork": 4},
			expected: map[string]int{"Teamwork": 4},
		},
		{
			name:     "Unknown keys survive with canonical casing",
			input:    map[string]int{"customer_empathy": 2},
			expected: map[string]int{"Customer Empathy": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Normalize(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

// Normalizing an already-normalized map must be a no-op.
func TestNormalizeIdempotent(t *testing.T) {
	input := map[string]int{
		"technical_excellence": 4,
		"problem_solving":      3,
		"quality":              5,
		"adaptability":         2,
	}

	once := Normalize(input)
	twice := Normalize(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second Normalize changed the map: first %v, second %v", once, twice)
	}
}
