package debate

import (
	"fmt"

	"github.com/coreline-ai/talk-codex-gemini/internal/util"
)

// probePrompt is the minimal prompt sent by ConnectAgent to verify the
// agent responds and yields a session id.
const probePrompt = "Reply with the single word: ready"

// openingPrompt builds the initiator's round-1 prompt: the topic plus the
// ground rules for the exchange.
func openingPrompt(topic string) string {
	return fmt.Sprintf(`You are taking part in a structured two-party debate.

Topic: %s

Present your opening position on the topic. Be concrete and concise.
In every reply, either challenge your counterpart's latest points or,
if you genuinely agree with their position, start your reply with the
word "합의" (consensus) followed by a summary of the agreed position.`, topic)
}

// continuationPrompt builds the initiator's prompt for rounds after the
// first, embedding the responder's previous reply trimmed to textLimit
// runes. Only the forwarded context is trimmed; the transcript keeps the
// full text.
func continuationPrompt(topic, prevResponse string, textLimit int) string {
	return fmt.Sprintf(`The debate on "%s" continues. Your counterpart replied:

%s

Respond to their points. If you now agree with their position, start your
reply with the word "합의" (consensus) followed by a summary.`, topic, util.TruncateRunes(prevResponse, textLimit))
}

// responderPrompt builds the responder's prompt, embedding the initiator's
// current-round reply trimmed to textLimit runes.
func responderPrompt(topic, initiatorResponse string, textLimit int) string {
	return fmt.Sprintf(`You are taking part in a structured two-party debate on "%s".
Your counterpart said:

%s

Challenge or refine their points. If you genuinely agree with their
position, start your reply with the word "합의" (consensus) followed by a
summary of the agreed position.`, topic, util.TruncateRunes(initiatorResponse, textLimit))
}
