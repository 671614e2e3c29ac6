package domain

// Query is the immutable request value carried through routing and handling.
// Context holds caller-supplied session attributes such as session_id and
// student_id; handlers read from it and never write back.
type Query struct {
	Text    string
	Context map[string]string
}

func (q Query) ContextValue(key string) string {
	if q.Context == nil {
		return ""
	}
	return q.Context[key]
}

// HandlerCategory is the closed set of routing targets.
type HandlerCategory string

const (
	CategoryConceptual      HandlerCategory = "conceptual"
	CategoryRecommendation  HandlerCategory = "recommendation"
	CategoryStudentSpecific HandlerCategory = "student_specific"
	CategoryPlatformLookup  HandlerCategory = "platform_lookup"
)

// HandlerDispatchFailed marks envelopes synthesized after the primary handler
// and its fallback both failed.
const HandlerDispatchFailed = "dispatch_failed"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseEnvelope is the single response shape every dispatch produces.
// Text is never empty, Citations slices are never nil, and History holds the
// conversation window that was visible to the handler plus the new exchange.
type ResponseEnvelope struct {
	Text      string             `json:"text"`
	HandlerID string             `json:"handler_id"`
	Citations Citations          `json:"citations"`
	History   []ConversationTurn `json:"history"`
}
