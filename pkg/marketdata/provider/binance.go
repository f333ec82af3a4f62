package provider

import (
	"context"
	"strings"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// Column names emitted by the Binance provider.
const (
	BinanceColumnSymbol    = "symbol"
	BinanceColumnPrice     = "price"
	BinanceColumnPctChange = "pct_chg"
)

// Binance API error codes that need special handling.
const (
	binanceErrTooManyRequests int64 = -1003
	binanceErrInvalidSymbol   int64 = -1121
)

// BinanceAPIClient is the subset of the go-binance client used here.
type BinanceAPIClient interface {
	NewListPriceChangeStatsService() BinancePriceChangeStatsService
}

// BinancePriceChangeStatsService abstracts the 24h ticker statistics request.
type BinancePriceChangeStatsService interface {
	Symbol(symbol string) BinancePriceChangeStatsService
	Do(ctx context.Context) ([]*binance.PriceChangeStats, error)
}

type realBinanceClient struct {
	client *binance.Client
}

func (r *realBinanceClient) NewListPriceChangeStatsService() BinancePriceChangeStatsService {
	return &realBinancePriceChangeStatsService{service: r.client.NewListPriceChangeStatsService()}
}

type realBinancePriceChangeStatsService struct {
	service *binance.ListPriceChangeStatsService
}

func (r *realBinancePriceChangeStatsService) Symbol(symbol string) BinancePriceChangeStatsService {
	r.service = r.service.Symbol(symbol)

	return r
}

func (r *realBinancePriceChangeStatsService) Do(ctx context.Context) ([]*binance.PriceChangeStats, error) {
	return r.service.Do(ctx)
}

// BinanceClient fetches spot ticker statistics from Binance.
type BinanceClient struct {
	apiClient BinanceAPIClient
}

// NewBinanceClient creates a client against the public Binance API.
func NewBinanceClient() *BinanceClient {
	return NewBinanceClientWithAPI(&realBinanceClient{client: binance.NewClient("", "")})
}

// NewBinanceClientWithAPI creates a client over a custom API implementation.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{apiClient: api}
}

func (c *BinanceClient) Name() string {
	return string(ProviderBinance)
}

// Snapshot queries each symbol separately so that one unknown symbol does not
// fail the whole batch. Unknown symbols are left out of the table.
func (c *BinanceClient) Snapshot(ctx context.Context, codes []string) (Table, error) {
	table := NewTable(BinanceColumnSymbol, BinanceColumnPrice, BinanceColumnPctChange)

	for _, code := range codes {
		symbol := strings.ToUpper(strings.TrimSpace(code))

		stats, err := c.apiClient.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
		if err != nil {
			var apiErr *common.APIError
			if errors.As(err, &apiErr) {
				switch apiErr.Code {
				case binanceErrInvalidSymbol:
					continue
				case binanceErrTooManyRequests:
					return table, errors.Wrap(errors.ErrCodeProviderRateLimited, "binance rate limit reached", err)
				}
			}

			return table, errors.Wrapf(errors.ErrCodeProviderUnavailable, err, "failed to fetch binance ticker %s", symbol)
		}

		for _, s := range stats {
			if s == nil {
				continue
			}

			if s.LastPrice == "" {
				return table, errors.Newf(errors.ErrCodeProviderResponseInvalid, "binance ticker %s has no last price", s.Symbol)
			}

			table.Append(s.Symbol, s.LastPrice, s.PriceChangePercent)
		}
	}

	return table, nil
}
