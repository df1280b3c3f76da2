package chat

import "memochat/internal/conversation"

// latestClarifyID returns the most recent resolved clarify message, or ""
// when no clarification is open. Keyboard actions target the newest one; the
// orchestrator itself supports any number of concurrent sub-flows.
func latestClarifyID(msgs []conversation.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Kind == conversation.KindClarify && msg.Status == conversation.StatusResolved {
			return msg.ID
		}
	}
	return ""
}

// latestOverflowID returns the most recent retrieve message that has extra
// candidates to show, or "".
func latestOverflowID(msgs []conversation.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Kind == conversation.KindRetrieve && msg.MoreCount() > 0 {
			return msg.ID
		}
	}
	return ""
}
