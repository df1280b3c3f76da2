package conversation

// translated reports whether an answer should carry the "translated" tag:
// the service declared a response language and it differs from the language
// the requester asked for. Forced actions report "unknown" because the
// classifier never ran; those are never tagged.
func translated(preferred, responded string) bool {
	if preferred == "" || responded == "" || responded == "unknown" {
		return false
	}
	return responded != preferred
}
