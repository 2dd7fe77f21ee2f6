// Token estimation utilities for LLM context management.
package llm

// EstimateTokens provides a heuristic-based token count estimate for text.
// Uses the ~4 characters per token approximation, rounded up. It is not a tokenizer:
// counts are approximate and only suitable for budgets and ratios.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateBudgetChars converts a token budget to approximate character limit.
func EstimateBudgetChars(tokens int) int {
	return tokens * 4
}

// TruncateToTokens cuts text to roughly the given token budget, preferring a line boundary.
func TruncateToTokens(text string, tokens int) string {
	limit := EstimateBudgetChars(tokens)
	if tokens <= 0 || len(text) <= limit {
		return text
	}
	cut := text[:limit]
	for i := len(cut) - 1; i > limit/2; i-- {
		if cut[i] == '\n' {
			return cut[:i]
		}
	}
	return cut
}
