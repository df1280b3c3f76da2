package conversation

import (
	"fmt"
	"strings"

	"memochat/internal/decision"
)

// Outcome is the typed result of classifying one decision-service reply.
// It is everything the Store needs to render a terminal assistant message.
type Outcome struct {
	Kind           Kind
	Text           string
	More           []Candidate
	ClarifyOptions []string
	ErrKind        ErrorKind
	Translated     bool
	Duplicate      bool
}

// Errored reports whether the outcome should land as StatusErrored.
func (o Outcome) Errored() bool { return o.Kind == KindError }

// Fallback texts for replies that carry no usable payload.
const (
	textNoResults   = "No results"
	textNeedClarify = "Need clarification"
	savedPrefix     = "Saved: "
)

// Classify maps a result envelope to a typed outcome. It is a pure function:
// the same envelope, preferred language and utterance always produce the same
// outcome. The service's payload shape is not stable across actions, so each
// action reads an ordered chain of fallback fields and takes the first
// non-empty match.
func Classify(env decision.Envelope, preferredLang, utterance string) Outcome {
	if !env.OK {
		kind := Taxonomy(env.Status)
		return Outcome{Kind: KindError, ErrKind: kind, Text: kind.Message()}
	}

	out := Outcome{
		Translated: translated(preferredLang, respondedLanguage(env.Body)),
	}

	action, _ := env.Body["action"].(string)
	switch action {
	case "retrieve":
		candidates := extractCandidates(env.Body)
		if len(candidates) == 0 {
			out.Kind = KindPlain
			out.Text = textNoResults
			return out
		}
		out.Kind = KindRetrieve
		out.Text = candidates[0].Text
		out.More = candidates[1:]
		return out

	case "store":
		saved := firstString(
			field(env.Body, "decision", "normalized_text"),
			field(env.Body, "result", "text"),
			utterance,
		)
		out.Kind = KindPlain
		out.Text = savedPrefix + saved
		out.Duplicate, _ = field(env.Body, "result", "duplicate_detected").(bool)
		return out

	case "clarify":
		out.Kind = KindClarify
		out.Text = firstString(
			field(env.Body, "decision", "clarify_prompt"),
			env.Body["question"],
			env.Body["message"],
			env.Body["clarification"],
			textNeedClarify,
		)
		out.ClarifyOptions = extractStrings(field(env.Body, "decision", "clarify_options"))
		return out

	default:
		// The service answered but the decision is unusable. Not a transport
		// failure, so it stays out of the HTTP taxonomy.
		out.Kind = KindError
		out.ErrKind = ErrSoftDecision
		out.Text = ErrSoftDecision.Message()
		return out
	}
}

// respondedLanguage reads the language the service says it answered in.
// Newer payloads carry it at the top level, older ones under decision.
func respondedLanguage(body map[string]any) string {
	if s, ok := body["language"].(string); ok && s != "" {
		return s
	}
	s, _ := field(body, "decision", "language").(string)
	return s
}

// extractCandidates reads the ranked candidate list, preferring the nested
// result shape over the flat legacy one. Entries may be objects with a text
// field or bare values; bare values are rendered as their string form.
func extractCandidates(body map[string]any) []Candidate {
	raw, ok := field(body, "result", "candidates").([]any)
	if !ok {
		raw, ok = body["candidates"].([]any)
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	candidates := make([]Candidate, 0, len(raw))
	for _, entry := range raw {
		switch v := entry.(type) {
		case map[string]any:
			c := Candidate{}
			if id, ok := v["memory_id"].(string); ok {
				c.ID = id
			} else if id, ok := v["id"].(string); ok {
				c.ID = id
			}
			if text, ok := v["text"].(string); ok && text != "" {
				c.Text = text
			} else {
				c.Text = fmt.Sprint(v)
			}
			candidates = append(candidates, c)
		case string:
			candidates = append(candidates, Candidate{Text: v})
		default:
			candidates = append(candidates, Candidate{Text: fmt.Sprint(v)})
		}
	}
	return candidates
}

// field walks a nested map path and returns the value at the end, or nil when
// any hop is missing or not an object.
func field(body map[string]any, path ...string) any {
	var current any = body
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

// firstString returns the first value that is a non-blank string.
func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func extractStrings(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
