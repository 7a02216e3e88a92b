package orchestrate

// Credit rates per 1000 tokens, keyed by model identifier. Unknown models
// fall back to defaultRatePerKiloToken so cost attribution never fails a
// turn.
var ratePerKiloToken = map[string]float64{
	"gemini-2.0-flash":           0.0004,
	"gemini-2.0-flash-lite":      0.0002,
	"gemini-2.5-flash":           0.0009,
	"gemini-2.5-pro":             0.0035,
	"gpt-4o":                     0.0075,
	"gpt-4o-mini":                0.0005,
	"o1":                         0.0300,
	"o3-mini":                    0.0033,
	"claude-3-5-sonnet-20241022": 0.0090,
	"claude-3-5-haiku-20241022":  0.0024,
}

const defaultRatePerKiloToken = 0.002

// Cost converts a token count to credits for the given model.
func Cost(model string, tokens int) float64 {
	rate, ok := ratePerKiloToken[model]
	if !ok {
		rate = defaultRatePerKiloToken
	}
	return rate * float64(tokens) / 1000
}
