package core

// Message is one turn of a conversation, in the role-tagged format the
// completion service expects.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used in conversation histories.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SlotRecord holds the user attributes extracted from a conversation.
// It is re-derived from the full history on every turn, never merged
// with a previous record.
type SlotRecord struct {
	Age      int      `json:"age"`
	Budget   string   `json:"budget"`
	Area     string   `json:"area"`
	Keywords []string `json:"keywords"`
}

// IsComplete reports whether all four slots carry a usable value.
// Zero age, empty budget/area and an empty keyword list all count as
// absent, matching the extraction prompt's null semantics.
func (r SlotRecord) IsComplete() bool {
	return r.Age > 0 && r.Budget != "" && r.Area != "" && len(r.Keywords) > 0
}

// Recommendation is the structured output of the recommendation step.
// Either Name/Price/Reason are set, or Err carries a user-facing error
// message; the two forms are mutually exclusive.
type Recommendation struct {
	Name   string  `json:"name,omitempty"`
	Price  float64 `json:"price,omitempty"`
	Reason string  `json:"reason,omitempty"`
	Err    string  `json:"error,omitempty"`
}

// IsError reports whether the recommendation is an error payload.
func (r Recommendation) IsError() bool {
	return r.Err != ""
}

// SearchResult is one knowledge-base hit, ordered by descending
// similarity when returned in a slice.
type SearchResult struct {
	Content         string         `json:"content"`
	Metadata        map[string]any `json:"metadata"`
	SimilarityScore float64        `json:"similarity_score"`
}

// Neighbor is a raw vector-store hit. Distance is the store's native
// distance (lower is closer); the knowledge layer converts it to a
// similarity score.
type Neighbor struct {
	ID       string
	Text     string
	Metadata map[string]any
	Distance float64
}

// TurnResult is what one conversational turn produces for the session
// layer: either a free-text eliciting reply, or a recommendation
// payload with IsRecommendation set.
type TurnResult struct {
	Text             string          `json:"response"`
	IsRecommendation bool            `json:"is_recommendation"`
	Data             *Recommendation `json:"data,omitempty"`
}
