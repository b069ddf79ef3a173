package models

// Currency is one of the currency codes accepted by the catalog.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyCZK Currency = "CZK"
	CurrencyBYN Currency = "BYN"
	CurrencyUAH Currency = "UAH"
)

var currencies = map[string]Currency{
	string(CurrencyEUR): CurrencyEUR,
	string(CurrencyRUB): CurrencyRUB,
	string(CurrencyUSD): CurrencyUSD,
	string(CurrencyGBP): CurrencyGBP,
	string(CurrencyCZK): CurrencyCZK,
	string(CurrencyBYN): CurrencyBYN,
	string(CurrencyUAH): CurrencyUAH,
}

// ParseCurrency matches s exactly (case-sensitive) against the known codes.
func ParseCurrency(s string) (Currency, bool) {
	c, ok := currencies[s]
	return c, ok
}

func (c Currency) String() string {
	return string(c)
}
