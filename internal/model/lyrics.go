package model

// TransformMode selects how the LLM should rework lyric text.
type TransformMode string

const (
	TransformRewrite   TransformMode = "rewrite"
	TransformRhyme     TransformMode = "rhyme"
	TransformShorten   TransformMode = "shorten"
	TransformFormalize TransformMode = "formalize"
)

// LyricsTransformRequest is the request body for an LLM lyric transform.
type LyricsTransformRequest struct {
	Text         string        `json:"text" validate:"required,min=1,max=10000"`
	Mode         TransformMode `json:"mode" validate:"required,oneof=rewrite rhyme shorten formalize"`
	Instructions string        `json:"instructions" validate:"omitempty,max=500"`
}

// LyricsTransformResponse carries the transformed text.
type LyricsTransformResponse struct {
	Text string `json:"text"`
}
