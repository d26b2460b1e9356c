package history

// MessageOverhead is the number of tokens charged per message on top of its
// content, for the role and separators.
const MessageOverhead = 4

const DefaultMaxTokens = 5000

// Trimmer keeps the newest messages that fit a token budget.
type Trimmer struct {
	MaxTokens int
	Counter   Counter
}

func NewTrimmer(maxTokens int, counter Counter) *Trimmer {
	if counter == nil {
		counter = RuneCounter{}
	}
	return &Trimmer{MaxTokens: maxTokens, Counter: counter}
}

func (t *Trimmer) cost(m Message) int {
	return t.Counter.Count(m.Content) + MessageOverhead
}

// Trim returns the window of msgs sent to the model. A leading system
// message is always kept and counts against the budget. Messages are taken
// from the newest backwards and never cut in half. The window then starts on
// the first human message, so it does not open on an orphaned reply.
// A non-positive MaxTokens disables trimming.
func (t *Trimmer) Trim(msgs []Message) []Message {
	if t == nil || t.MaxTokens <= 0 || len(msgs) == 0 {
		return msgs
	}

	var system *Message
	rest := msgs
	if msgs[0].Role == RoleSystem {
		system = &msgs[0]
		rest = msgs[1:]
	}

	budget := t.MaxTokens
	if system != nil {
		budget -= t.cost(*system)
	}

	start := len(rest)
	for i := len(rest) - 1; i >= 0 && budget >= 0; i-- {
		c := t.cost(rest[i])
		if c > budget {
			break
		}
		budget -= c
		start = i
	}

	window := rest[start:]
	for len(window) > 0 && window[0].Role != RoleHuman {
		window = window[1:]
	}

	ret := make([]Message, 0, len(window)+1)
	if system != nil {
		ret = append(ret, *system)
	}
	return append(ret, window...)
}
