package dto

import (
	"regexp"
	"strings"
	"time"
)

const (
	Period1Day    = "1d"
	Period5Day    = "5d"
	Period1Month  = "1mo"
	Period3Month  = "3mo"
	Period6Month  = "6mo"
	Period1Year   = "1y"
	Period2Year   = "2y"
	Period5Year   = "5y"
	PeriodYTD     = "ytd"
	DefaultPeriod = Period1Month

	Interval5Min  = "5m"
	Interval30Min = "30m"
	Interval1Day  = "1d"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,14}$`)

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// IsValidTicker reports whether an already normalized ticker is acceptable.
func IsValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker)
}

func IsValidPeriod(period string) bool {
	switch period {
	case Period1Day, Period5Day, Period1Month, Period3Month, Period6Month,
		Period1Year, Period2Year, Period5Year, PeriodYTD:
		return true
	}
	return false
}

// IntervalForPeriod returns the bar size requested from the provider.
func IntervalForPeriod(period string) string {
	switch period {
	case Period1Day:
		return Interval5Min
	case Period5Day:
		return Interval30Min
	default:
		return Interval1Day
	}
}

// BarsPerYear is the number of regular-session bars of the given interval in a trading year.
func BarsPerYear(interval string) float64 {
	const tradingDays, sessionMinutes = 252, 390
	switch interval {
	case Interval5Min:
		return tradingDays * sessionMinutes / 5
	case Interval30Min:
		return tradingDays * sessionMinutes / 30
	default:
		return tradingDays
	}
}

// Yahoo Finance chart API response
type YahooFinanceResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol              string  `json:"symbol"`
				Currency            string  `json:"currency"`
				ExchangeName        string  `json:"exchangeName"`
				LongName            string  `json:"longName"`
				ShortName           string  `json:"shortName"`
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
				FiftyTwoWeekHigh    float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow     float64 `json:"fiftyTwoWeekLow"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *YahooFinanceError `json:"error"`
	} `json:"chart"`
}

type YahooFinanceError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type GetStockDataParam struct {
	Ticker   string
	Range    string
	Interval string
}

type StockOHLCV struct {
	Timestamp     int64   `json:"timestamp"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// StockData is what the provider returns for one chart request.
type StockData struct {
	Ticker           string       `json:"ticker"`
	Name             string       `json:"name"`
	Currency         string       `json:"currency"`
	Exchange         string       `json:"exchange"`
	MarketPrice      float64      `json:"market_price"`
	PreviousClose    float64      `json:"previous_close"`
	FiftyTwoWeekHigh float64      `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64      `json:"fifty_two_week_low"`
	Volume           int64        `json:"volume"`
	Range            string       `json:"range"`
	Interval         string       `json:"interval"`
	OHLCV            []StockOHLCV `json:"ohlcv"`
}

type MarketSummary struct {
	Name             string  `json:"name"`
	Sector           string  `json:"sector,omitempty"`
	Currency         string  `json:"currency,omitempty"`
	Exchange         string  `json:"exchange,omitempty"`
	CurrentPrice     float64 `json:"current_price"`
	PreviousClose    float64 `json:"previous_close"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"change_percent"`
	PeriodHigh       float64 `json:"period_high"`
	PeriodLow        float64 `json:"period_low"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low"`
	Volume           int64   `json:"volume"`
	AverageVolume    int64   `json:"average_volume"`
	MarketCap        int64   `json:"market_cap"`
}

type MarketData struct {
	Ticker    string        `json:"ticker"`
	Period    string        `json:"period"`
	Interval  string        `json:"interval"`
	Summary   MarketSummary `json:"summary"`
	History   []StockOHLCV  `json:"history"`
	FetchedAt time.Time     `json:"fetched_at"`
}

type GetMarketDataRequest struct {
	Ticker string `param:"ticker" validate:"required,ticker"`
	Period string `query:"period" validate:"omitempty,period"`
}

type ListCompaniesRequest struct {
	Sector string `query:"sector"`
	Active *bool  `query:"active"`
}
