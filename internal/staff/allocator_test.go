package staff

import "testing"

func TestNextID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{
			name:     "empty set yields first id",
			existing: nil,
			want:     "FG0001",
		},
		{
			name:     "continues from maximum",
			existing: []string{"FG0001", "FG0007", "FG0003"},
			want:     "FG0008",
		},
		{
			name:     "ignores unparsable ids",
			existing: []string{"AB12", "garbage"},
			want:     "FG0013",
		},
		{
			name:     "all unparsable behaves like empty",
			existing: []string{"garbage", "---"},
			want:     "FG0001",
		},
		{
			name:     "zero padding kept for small numbers",
			existing: []string{"FG0009"},
			want:     "FG0010",
		},
		{
			name:     "grows past four digits without truncation",
			existing: []string{"FG9999"},
			want:     "FG10000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextID(tt.existing); got != tt.want {
				t.Errorf("NextID(%v) = %q, want %q", tt.existing, got, tt.want)
			}
		})
	}
}

func TestValidUnit(t *testing.T) {
	if !ValidUnit("food") {
		t.Error("expected food to be a valid unit")
	}
	if ValidUnit("accounting") {
		t.Error("expected accounting to be rejected")
	}
	if ValidUnit("") {
		t.Error("expected empty unit to be rejected")
	}
}
