package arxiv

import "testing"

func TestNormalizeID_AcceptedShapes(t *testing.T) {
	// The four accepted shapes of the same paper all yield one base ID.
	tests := []struct {
		name          string
		input         string
		wantBase      string
		wantVersioned string
	}{
		{"bare base id", "2301.04104", "2301.04104", "2301.04104"},
		{"bare versioned id", "2301.04104v2", "2301.04104", "2301.04104v2"},
		{"abs URL", "https://arxiv.org/abs/2301.04104v2", "2301.04104", "2301.04104v2"},
		{"pdf URL", "https://arxiv.org/pdf/2301.04104v2.pdf", "2301.04104", "2301.04104v2"},
		{"scheme label", "arXiv: 2301.04104v1", "2301.04104", "2301.04104v1"},
		{"query string", "https://arxiv.org/abs/2301.04104?context=cs.LG", "2301.04104", "2301.04104"},
		{"trailing slash", "https://arxiv.org/abs/2301.04104/", "2301.04104", "2301.04104"},
		{"old-style id", "https://arxiv.org/abs/hep-th/9901001v1", "hep-th/9901001", "hep-th/9901001v1"},
		{"whitespace", "  2301.04104v3  ", "2301.04104", "2301.04104v3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, versioned := NormalizeID(tt.input)
			if base != tt.wantBase {
				t.Errorf("NormalizeID(%q) base = %q, want %q", tt.input, base, tt.wantBase)
			}
			if versioned != tt.wantVersioned {
				t.Errorf("NormalizeID(%q) versioned = %q, want %q", tt.input, versioned, tt.wantVersioned)
			}
		})
	}
}

func TestNormalizeID_Idempotent(t *testing.T) {
	base, _ := NormalizeID("https://arxiv.org/abs/2301.04104v2")
	again, versioned := NormalizeID(base)
	if again != base {
		t.Errorf("NormalizeID(%q) = %q, want unchanged", base, again)
	}
	if versioned != base {
		t.Errorf("NormalizeID(%q) versioned = %q, want %q", base, versioned, base)
	}
}
