package port

// Tokenizer estimates token counts for remote-call budgeting.
type Tokenizer interface {
	TokenLength(text string) int
}
