package telegram

// maxMessageLen keeps sends under Telegram's 4096 character cap with
// headroom for entity expansion.
const maxMessageLen = 4000

// splitMessage breaks text into chunks of at most maxMessageLen runes,
// preferring to cut at the last newline or space inside the window.
func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLen
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' || runes[i-1] == ' ' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
