package conversation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"memochat/internal/decision"
)

func okEnvelope(body map[string]any) decision.Envelope {
	return decision.Envelope{OK: true, Status: 200, Body: body}
}

func TestClassify_RetrieveCandidates(t *testing.T) {
	t.Parallel()

	env := okEnvelope(map[string]any{
		"action": "retrieve",
		"result": map[string]any{
			"candidates": []any{
				map[string]any{"memory_id": "m1", "text": "top shelf"},
				map[string]any{"memory_id": "m2", "text": "drawer"},
				map[string]any{"memory_id": "m3", "text": "laundry"},
			},
		},
	})

	out := Classify(env, "", "where is it")
	if out.Kind != KindRetrieve {
		t.Fatalf("expected retrieve kind, got %v", out.Kind)
	}
	if out.Text != "top shelf" {
		t.Errorf("primary text = %q, want %q", out.Text, "top shelf")
	}
	want := []Candidate{{ID: "m2", Text: "drawer"}, {ID: "m3", Text: "laundry"}}
	if diff := cmp.Diff(want, out.More); diff != "" {
		t.Errorf("overflow candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_RetrieveFlatCandidates(t *testing.T) {
	t.Parallel()

	// Legacy payloads put candidates at the top level.
	env := okEnvelope(map[string]any{
		"action":     "retrieve",
		"candidates": []any{map[string]any{"text": "garage"}},
	})

	out := Classify(env, "", "")
	if out.Text != "garage" {
		t.Errorf("primary text = %q, want %q", out.Text, "garage")
	}
	if len(out.More) != 0 {
		t.Errorf("expected no overflow for a single candidate, got %d", len(out.More))
	}
}

func TestClassify_RetrieveBareStringCandidates(t *testing.T) {
	t.Parallel()

	env := okEnvelope(map[string]any{
		"action":     "retrieve",
		"candidates": []any{"under the bed", "car trunk"},
	})

	out := Classify(env, "", "")
	if out.Text != "under the bed" {
		t.Errorf("primary text = %q, want %q", out.Text, "under the bed")
	}
	if len(out.More) != 1 || out.More[0].Text != "car trunk" {
		t.Errorf("overflow = %+v, want one entry %q", out.More, "car trunk")
	}
}

func TestClassify_RetrieveEmpty(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]map[string]any{
		"absent": {"action": "retrieve"},
		"empty":  {"action": "retrieve", "result": map[string]any{"candidates": []any{}}},
	} {
		t.Run(name, func(t *testing.T) {
			out := Classify(okEnvelope(body), "", "")
			if out.Kind != KindPlain || out.Text != "No results" {
				t.Errorf("got kind=%v text=%q, want plain %q", out.Kind, out.Text, "No results")
			}
		})
	}
}

func TestClassify_StoreFallbackChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "normalized text wins",
			body: map[string]any{
				"action":   "store",
				"decision": map[string]any{"normalized_text": "I lent the pink shirt to Hadar"},
				"result":   map[string]any{"text": "ignored"},
			},
			want: "Saved: I lent the pink shirt to Hadar",
		},
		{
			name: "result text second",
			body: map[string]any{
				"action": "store",
				"result": map[string]any{"text": "from result"},
			},
			want: "Saved: from result",
		},
		{
			name: "utterance last",
			body: map[string]any{"action": "store"},
			want: "Saved: the original input",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(okEnvelope(tt.body), "", "the original input")
			if out.Text != tt.want {
				t.Errorf("text = %q, want %q", out.Text, tt.want)
			}
			if out.Kind != KindPlain {
				t.Errorf("kind = %v, want plain", out.Kind)
			}
		})
	}
}

func TestClassify_StoreDuplicateFlag(t *testing.T) {
	t.Parallel()

	env := okEnvelope(map[string]any{
		"action":   "store",
		"decision": map[string]any{"normalized_text": "buy milk"},
		"result":   map[string]any{"duplicate_detected": true},
	})
	out := Classify(env, "", "")
	if !out.Duplicate {
		t.Error("duplicate flag not set")
	}
	if out.Text != "Saved: buy milk" {
		t.Errorf("text = %q; duplicate detection must not change the text", out.Text)
	}
}

func TestClassify_ClarifyPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "clarify_prompt first",
			body: map[string]any{
				"action":        "clarify",
				"decision":      map[string]any{"clarify_prompt": "from prompt"},
				"question":      "from question",
				"message":       "from message",
				"clarification": "from clarification",
			},
			want: "from prompt",
		},
		{
			name: "question second",
			body: map[string]any{
				"action":        "clarify",
				"question":      "from question",
				"message":       "from message",
				"clarification": "from clarification",
			},
			want: "from question",
		},
		{
			name: "message third",
			body: map[string]any{
				"action":        "clarify",
				"message":       "from message",
				"clarification": "from clarification",
			},
			want: "from message",
		},
		{
			name: "clarification fourth",
			body: map[string]any{
				"action":        "clarify",
				"clarification": "from clarification",
			},
			want: "from clarification",
		},
		{
			name: "default last",
			body: map[string]any{"action": "clarify"},
			want: "Need clarification",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(okEnvelope(tt.body), "", "")
			if out.Kind != KindClarify {
				t.Fatalf("kind = %v, want clarify", out.Kind)
			}
			if out.Text != tt.want {
				t.Errorf("text = %q, want %q", out.Text, tt.want)
			}
		})
	}
}

func TestClassify_ClarifyOptions(t *testing.T) {
	t.Parallel()

	env := okEnvelope(map[string]any{
		"action": "clarify",
		"decision": map[string]any{
			"clarify_prompt":  "Store or find?",
			"clarify_options": []any{"store", "retrieve"},
		},
	})
	out := Classify(env, "", "")
	if len(out.ClarifyOptions) != 2 || out.ClarifyOptions[0] != "store" || out.ClarifyOptions[1] != "retrieve" {
		t.Errorf("options = %v, want [store retrieve]", out.ClarifyOptions)
	}
}

func TestClassify_UnknownActionIsSoftFailure(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]map[string]any{
		"missing": {},
		"bogus":   {"action": "dance"},
	} {
		t.Run(name, func(t *testing.T) {
			out := Classify(okEnvelope(body), "", "")
			if out.Kind != KindError {
				t.Fatalf("kind = %v, want error", out.Kind)
			}
			if out.ErrKind != ErrSoftDecision {
				t.Errorf("err kind = %v, want soft decision failure", out.ErrKind)
			}
			if out.Text != "Server error" {
				t.Errorf("text = %q, want %q", out.Text, "Server error")
			}
		})
	}
}

func TestClassify_FailedEnvelopeUsesTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		kind   ErrorKind
		text   string
	}{
		{401, ErrUnauthorized, "Missing/invalid API key"},
		{429, ErrRateLimited, "Rate limit"},
		{500, ErrServer, "Server error"},
		{0, ErrServer, "Server error"},
	}
	for _, tt := range tests {
		out := Classify(decision.Envelope{OK: false, Status: tt.status}, "", "")
		if out.Kind != KindError || out.ErrKind != tt.kind || out.Text != tt.text {
			t.Errorf("status %d: got kind=%v err=%v text=%q, want err=%v text=%q",
				tt.status, out.Kind, out.ErrKind, out.Text, tt.kind, tt.text)
		}
	}
}

func TestClassify_LanguageTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		preferred string
		body      map[string]any
		want      bool
	}{
		{
			name:      "mismatch tags",
			preferred: "he",
			body:      map[string]any{"action": "retrieve", "candidates": []any{"x"}, "language": "en"},
			want:      true,
		},
		{
			name:      "match leaves untagged",
			preferred: "he",
			body:      map[string]any{"action": "retrieve", "candidates": []any{"x"}, "language": "he"},
			want:      false,
		},
		{
			name:      "no preference leaves untagged",
			preferred: "",
			body:      map[string]any{"action": "retrieve", "candidates": []any{"x"}, "language": "en"},
			want:      false,
		},
		{
			name:      "absent language leaves untagged",
			preferred: "he",
			body:      map[string]any{"action": "retrieve", "candidates": []any{"x"}},
			want:      false,
		},
		{
			name:      "unknown from forced action leaves untagged",
			preferred: "he",
			body:      map[string]any{"action": "store", "language": "unknown"},
			want:      false,
		},
		{
			name:      "nested decision language",
			preferred: "he",
			body: map[string]any{
				"action":   "store",
				"decision": map[string]any{"normalized_text": "x", "language": "en"},
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(okEnvelope(tt.body), tt.preferred, "y")
			if out.Translated != tt.want {
				t.Errorf("translated = %v, want %v", out.Translated, tt.want)
			}
		})
	}
}
