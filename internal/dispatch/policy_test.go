package dispatch

import (
	"errors"
	"testing"
)

func TestPolicy_Recipients(t *testing.T) {
	tests := []struct {
		name    string
		sender  string
		spec    RecipientSpec
		want    []string
		wantErr bool
	}{
		{
			name:   "primary only",
			sender: "reports@mzansitel.co.za",
			spec:   RecipientSpec{Primary: "client@example.com"},
			want:   []string{"client@example.com"},
		},
		{
			name:   "cc self appends sender",
			sender: "reports@mzansitel.co.za",
			spec:   RecipientSpec{Primary: "client@example.com", CCSelf: true},
			want:   []string{"client@example.com", "reports@mzansitel.co.za"},
		},
		{
			name:   "cc self skipped when sender equals primary",
			sender: "reports@mzansitel.co.za",
			spec:   RecipientSpec{Primary: "reports@mzansitel.co.za", CCSelf: true},
			want:   []string{"reports@mzansitel.co.za"},
		},
		{
			name:   "cc self equality is case-insensitive",
			sender: "Reports@Mzansitel.co.za",
			spec:   RecipientSpec{Primary: "reports@mzansitel.co.za", CCSelf: true},
			want:   []string{"reports@mzansitel.co.za"},
		},
		{
			name:   "cc self without configured sender",
			sender: "",
			spec:   RecipientSpec{Primary: "client@example.com", CCSelf: true},
			want:   []string{"client@example.com"},
		},
		{
			name:   "whitespace trimmed",
			sender: "reports@mzansitel.co.za",
			spec:   RecipientSpec{Primary: "  client@example.com  "},
			want:   []string{"client@example.com"},
		},
		{
			name:    "invalid primary aborts",
			sender:  "reports@mzansitel.co.za",
			spec:    RecipientSpec{Primary: "not-an-email"},
			wantErr: true,
		},
		{
			name:    "empty primary aborts",
			sender:  "reports@mzansitel.co.za",
			spec:    RecipientSpec{Primary: ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(tt.sender)
			got, err := p.Recipients(tt.spec)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				var valErr *ValidationError
				if !errors.As(err, &valErr) {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Recipients failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("recipients = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("recipient %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPolicy_NoDuplicates(t *testing.T) {
	p := NewPolicy("reports@mzansitel.co.za")

	specs := []RecipientSpec{
		{Primary: "client@example.com", CCSelf: true},
		{Primary: "reports@mzansitel.co.za", CCSelf: true},
		{Primary: "other@example.com"},
	}
	for _, spec := range specs {
		got, err := p.Recipients(spec)
		if err != nil {
			t.Fatalf("Recipients(%+v) failed: %v", spec, err)
		}
		seen := make(map[string]bool)
		for _, addr := range got {
			if seen[addr] {
				t.Errorf("duplicate recipient %q for spec %+v", addr, spec)
			}
			seen[addr] = true
		}
	}
}
