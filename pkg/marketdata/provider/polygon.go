package provider

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// Column names emitted by the Polygon provider.
const (
	PolygonColumnCode      = "code"
	PolygonColumnPrice     = "price"
	PolygonColumnPctChange = "pct_chg"
)

// PolygonAPIClient is the subset of the Polygon REST client used here.
type PolygonAPIClient interface {
	GetTickerSnapshot(ctx context.Context, params *models.GetTickerSnapshotParams, opts ...models.RequestOption) (*models.GetTickerSnapshotResponse, error)
}

// PolygonClient fetches US stock snapshots from Polygon.io.
type PolygonClient struct {
	apiClient PolygonAPIClient
}

// NewPolygonClient creates a client authenticated with cfg.ApiKey.
func NewPolygonClient(cfg PolygonConfig) (*PolygonClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return NewPolygonClientWithAPI(polygon.New(cfg.ApiKey)), nil
}

// NewPolygonClientWithAPI creates a client over a custom API implementation.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return &PolygonClient{apiClient: api}
}

func (c *PolygonClient) Name() string {
	return string(ProviderPolygon)
}

// Snapshot fetches one ticker snapshot per code. Tickers Polygon does not know
// (HTTP 404) are skipped. The last trade price is preferred over the day close.
func (c *PolygonClient) Snapshot(ctx context.Context, codes []string) (Table, error) {
	table := NewTable(PolygonColumnCode, PolygonColumnPrice, PolygonColumnPctChange)

	for _, code := range codes {
		ticker := strings.ToUpper(strings.TrimSpace(code))

		resp, err := c.apiClient.GetTickerSnapshot(ctx, &models.GetTickerSnapshotParams{
			Ticker:     ticker,
			Locale:     models.US,
			MarketType: models.Stocks,
		})
		if err != nil {
			var apiErr *models.ErrorResponse
			if errors.As(err, &apiErr) {
				switch apiErr.StatusCode {
				case http.StatusNotFound:
					continue
				case http.StatusTooManyRequests:
					return table, errors.Wrap(errors.ErrCodeProviderRateLimited, "polygon rate limit reached", err)
				}
			}

			return table, errors.Wrapf(errors.ErrCodeProviderUnavailable, err, "failed to fetch polygon snapshot %s", ticker)
		}

		if resp == nil {
			return table, errors.Newf(errors.ErrCodeProviderResponseInvalid, "polygon returned no snapshot for %s", ticker)
		}

		snap := resp.Snapshot

		price := snap.LastTrade.Price
		if price == 0 {
			price = snap.Day.Close
		}

		if price == 0 {
			continue
		}

		symbol := snap.Ticker
		if symbol == "" {
			symbol = ticker
		}

		table.Append(
			symbol,
			strconv.FormatFloat(price, 'f', -1, 64),
			strconv.FormatFloat(snap.TodaysChangePerc, 'f', -1, 64),
		)
	}

	return table, nil
}
