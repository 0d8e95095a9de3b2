package analysis

import "fmt"

// Pricing holds USD prices per token for one model tier.
type Pricing struct {
	InputPerToken  float64
	OutputPerToken float64
}

// Cost of a single request.
func (p Pricing) Cost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)*p.InputPerToken + float64(completionTokens)*p.OutputPerToken
}

// FormatCost renders a dollar amount the way it is stored in the table.
func FormatCost(c float64) string {
	return fmt.Sprintf("$%.4f", c)
}
