package repository

import (
	"context"
	"fmt"
	"market-insight/config"
	"market-insight/internal/dto"
	"market-insight/pkg/common"
	"market-insight/pkg/httpclient"
	"market-insight/pkg/logger"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type YahooFinanceRepository interface {
	Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error)
}

const (
	yahooRetryWait    = 200 * time.Millisecond
	yahooRetryMaxWait = 2 * time.Second
)

// yahooFinanceRepository reads the public chart endpoint through resty.
type yahooFinanceRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) YahooFinanceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &yahooFinanceRepository{
		httpClient:     httpclient.New(log, cfg.YahooFinance.BaseURL, cfg.YahooFinance.Timeout, "",
			httpclient.WithRetry(cfg.YahooFinance.RetryCount, yahooRetryWait, yahooRetryMaxWait),
		),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}
}

func (r *yahooFinanceRepository) Get(ctx context.Context, param dto.GetStockDataParam) (*dto.StockData, error) {
	if r.requestLimiter.Tokens() < 1 {
		r.logger.WarnContext(ctx, "Yahoo Finance API request limit reached, waiting",
			logger.IntField("max_request_per_minute", r.cfg.YahooFinance.MaxRequestPerMinute),
		)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: yahoo finance rate limiter: %v", common.ErrUpstreamTimeout, err)
	}

	if param.Interval == "" {
		param.Interval = dto.IntervalForPeriod(param.Range)
	}

	queryParams := map[string]string{
		"range":          param.Range,
		"interval":       param.Interval,
		"includePrePost": "false",
		"events":         "div,split",
	}

	headers := map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "application/json, text/plain, */*",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}

	var yahooResp dto.YahooFinanceResponse
	resp, err := r.httpClient.Get(ctx, "/"+url.PathEscape(param.Ticker), queryParams, headers, &yahooResp)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, fmt.Errorf("%w: yahoo finance %s: %v", common.ErrUpstreamTimeout, param.Ticker, err)
		}
		return nil, fmt.Errorf("%w: failed to fetch data from yahoo finance: %v", common.ErrUpstream, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: symbol %s", common.ErrNotFound, param.Ticker)
	case resp.StatusCode != http.StatusOK:
		r.logger.ErrorContext(ctx, "Yahoo Finance API returned Non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)))
		return nil, fmt.Errorf("%w: yahoo finance api returned status: %d", common.ErrUpstream, resp.StatusCode)
	}

	if yahooResp.Chart.Error != nil {
		if strings.EqualFold(yahooResp.Chart.Error.Code, "Not Found") {
			return nil, fmt.Errorf("%w: symbol %s", common.ErrNotFound, param.Ticker)
		}
		return nil, fmt.Errorf("%w: yahoo finance api error: %s", common.ErrUpstream, yahooResp.Chart.Error.Description)
	}

	if len(yahooResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: no data returned for symbol %s", common.ErrNotFound, param.Ticker)
	}

	result := yahooResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no quote data available for symbol %s", common.ErrNotFound, param.Ticker)
	}

	quote := result.Indicators.Quote[0]
	var adjClose []float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	var ohlcvData []dto.StockOHLCV
	for i, timestamp := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}

		// the provider reports gaps as null, which decode to 0
		if quote.Open[i] == 0 || quote.High[i] == 0 || quote.Low[i] == 0 ||
			quote.Close[i] == 0 || quote.Volume[i] == 0 {
			continue
		}

		adjusted := quote.Close[i]
		if i < len(adjClose) && adjClose[i] > 0 {
			adjusted = adjClose[i]
		}

		ohlcvData = append(ohlcvData, dto.StockOHLCV{
			Timestamp:     timestamp,
			Open:          quote.Open[i],
			High:          quote.High[i],
			Low:           quote.Low[i],
			Close:         quote.Close[i],
			AdjustedClose: adjusted,
			Volume:        quote.Volume[i],
		})
	}

	if len(ohlcvData) == 0 {
		return nil, fmt.Errorf("%w: no valid OHLCV data found for symbol %s", common.ErrNotFound, param.Ticker)
	}

	meta := result.Meta
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = param.Ticker
	}

	marketPrice := meta.RegularMarketPrice
	if marketPrice <= 0 {
		marketPrice = ohlcvData[len(ohlcvData)-1].Close
	}

	return &dto.StockData{
		Ticker:           param.Ticker,
		Name:             name,
		Currency:         meta.Currency,
		Exchange:         meta.ExchangeName,
		MarketPrice:      marketPrice,
		PreviousClose:    meta.ChartPreviousClose,
		FiftyTwoWeekHigh: meta.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  meta.FiftyTwoWeekLow,
		Volume:           meta.RegularMarketVolume,
		Range:            param.Range,
		Interval:         param.Interval,
		OHLCV:            ohlcvData,
	}, nil
}
