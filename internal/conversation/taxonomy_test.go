package conversation

import "testing"

func TestTaxonomy_FixedMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   ErrorKind
	}{
		{401, ErrUnauthorized},
		{429, ErrRateLimited},
		{0, ErrServer},
		{400, ErrServer},
		{403, ErrServer},
		{404, ErrServer},
		{422, ErrServer},
		{500, ErrServer},
		{503, ErrServer},
		{-1, ErrServer},
		{999, ErrServer},
	}
	for _, tt := range tests {
		if got := Taxonomy(tt.status); got != tt.want {
			t.Errorf("Taxonomy(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestErrorKind_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind ErrorKind
		want string
	}{
		{ErrUnauthorized, "Missing/invalid API key"},
		{ErrRateLimited, "Rate limit"},
		{ErrServer, "Server error"},
		{ErrSoftDecision, "Server error"},
	}
	for _, tt := range tests {
		if got := tt.kind.Message(); got != tt.want {
			t.Errorf("%v.Message() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
