package openrouter

// Generation is the billing record for one OpenRouter generation.
type Generation struct {
	ID            string
	TotalCost     float64
	CacheDiscount float64 // 0 when the API reports null or omits it
	ProviderName  string
	Model         string
}

// Credits is the account credit snapshot.
type Credits struct {
	TotalCredits float64
	TotalUsage   float64
}

// Remaining returns granted minus used credits.
func (c Credits) Remaining() float64 {
	return c.TotalCredits - c.TotalUsage
}
