package recognition

import "testing"

func TestSearchResult_TopHit(t *testing.T) {
	r := &SearchResult{
		Hits: []SearchHit{
			{Token: "a", Confidence: 70},
			{Token: "b", Confidence: 94},
			{Token: "c", Confidence: 88},
		},
	}

	top := r.TopHit()
	if top == nil || top.Token != "b" {
		t.Fatalf("expected top hit b, got %+v", top)
	}
}

func TestSearchResult_TopHitEmpty(t *testing.T) {
	if (&SearchResult{}).TopHit() != nil {
		t.Error("expected nil top hit for empty result")
	}
	var r *SearchResult
	if r.TopHit() != nil {
		t.Error("expected nil top hit for nil result")
	}
}

func TestSearchResult_StrictestOperatingPoint(t *testing.T) {
	r := &SearchResult{
		OperatingPoints: []OperatingPoint{
			{Name: "far_1e-3", Threshold: 80, FalseAcceptRate: 1e-3},
			{Name: "far_1e-5", Threshold: 93, FalseAcceptRate: 1e-5},
			{Name: "far_1e-4", Threshold: 87, FalseAcceptRate: 1e-4},
		},
	}

	op, ok := r.StrictestOperatingPoint()
	if !ok {
		t.Fatal("expected an operating point")
	}
	if op.Name != "far_1e-5" {
		t.Errorf("expected strictest point far_1e-5, got %q", op.Name)
	}
}

func TestSearchResult_StrictestOperatingPointByThreshold(t *testing.T) {
	// Oracles that do not publish false-accept rates are ordered by threshold.
	r := &SearchResult{
		OperatingPoints: []OperatingPoint{
			{Name: "low", Threshold: 75},
			{Name: "high", Threshold: 95},
			{Name: "medium", Threshold: 85},
		},
	}

	op, ok := r.StrictestOperatingPoint()
	if !ok {
		t.Fatal("expected an operating point")
	}
	if op.Name != "high" {
		t.Errorf("expected high, got %q", op.Name)
	}
}

func TestSearchResult_StrictestOperatingPointNone(t *testing.T) {
	if _, ok := (&SearchResult{}).StrictestOperatingPoint(); ok {
		t.Error("expected no operating point for empty result")
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{250, 100},
	}
	for _, tt := range tests {
		if got := clampConfidence(tt.in); got != tt.want {
			t.Errorf("clampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseQualityVerdict(t *testing.T) {
	tests := []struct {
		name    string
		content string
		valid   bool
		wantErr bool
	}{
		{name: "plain json", content: `{"valid": true, "reason": ""}`, valid: true},
		{name: "code fence", content: "```json\n{\"valid\": false, \"reason\": \"blurred\"}\n```", valid: false},
		{name: "garbage", content: "the photo looks fine", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseQualityVerdict(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Valid != tt.valid {
				t.Errorf("valid = %v, want %v", result.Valid, tt.valid)
			}
		})
	}
}
