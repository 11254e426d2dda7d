package geckoModel

// RawPrices is the /simple/price response: coin id -> currency -> price.
type RawPrices map[string]map[string]float64

// RawMarketChart is the /coins/{id}/market_chart response.
// Each entry is a [msTimestamp, value] pair.
type RawMarketChart struct {
	Prices [][]float64 `json:"prices"`
}

type RawSearch struct {
	Coins []RawSearchCoin `json:"coins"`
}

type RawSearchCoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type CoinInfo struct {
	ID     string
	Symbol string
	Name   string
}
