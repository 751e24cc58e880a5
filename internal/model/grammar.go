package model

// GrammarCheckRequest is the request body for a grammar check.
type GrammarCheckRequest struct {
	Text     string `json:"text" validate:"required,min=1,max=20000"`
	Language string `json:"language" validate:"omitempty,oneof=en-US en-GB de-DE fr auto"`
}

// GrammarMatch is one correction suggested by the grammar API, addressed by
// rune offset and length into the checked text.
type GrammarMatch struct {
	Offset       int      `json:"offset"`
	Length       int      `json:"length"`
	Message      string   `json:"message"`
	ShortMessage string   `json:"shortMessage,omitempty"`
	Replacements []string `json:"replacements"`
	RuleID       string   `json:"ruleId,omitempty"`
	Category     string   `json:"category,omitempty"`
}

// GrammarCheckResponse is the list of matches for a checked text.
type GrammarCheckResponse struct {
	Language string         `json:"language"`
	Matches  []GrammarMatch `json:"matches"`
}
