package payments

const (
	CurrencyRial  = "IRR"
	CurrencyToman = "IRT"
)

// AmountForGateway converts a rial amount into the unit the gateway bills in.
// One toman is ten rial; the division rounds up so the merchant is never
// undercharged by truncation.
func AmountForGateway(amountIRR int64, currency string) int64 {
	if amountIRR < 0 {
		amountIRR = 0
	}
	if currency == CurrencyToman {
		return (amountIRR + 9) / 10
	}
	return amountIRR
}
