package provider

import (
	"context"
	stderrors "errors"
	"testing"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	stats     map[string][]*binance.PriceChangeStats
	errs      map[string]error
	requested []string
}

func (m *mockBinanceAPIClient) NewListPriceChangeStatsService() BinancePriceChangeStatsService {
	return &mockBinanceStatsService{client: m}
}

type mockBinanceStatsService struct {
	client *mockBinanceAPIClient
	symbol string
}

func (m *mockBinanceStatsService) Symbol(symbol string) BinancePriceChangeStatsService {
	m.symbol = symbol

	return m
}

func (m *mockBinanceStatsService) Do(_ context.Context) ([]*binance.PriceChangeStats, error) {
	m.client.requested = append(m.client.requested, m.symbol)
	if err, ok := m.client.errs[m.symbol]; ok {
		return nil, err
	}

	return m.client.stats[m.symbol], nil
}

type BinanceClientTestSuite struct {
	suite.Suite
	api *mockBinanceAPIClient
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func (suite *BinanceClientTestSuite) SetupTest() {
	suite.api = &mockBinanceAPIClient{
		stats: map[string][]*binance.PriceChangeStats{
			"BTCUSDT": {{Symbol: "BTCUSDT", LastPrice: "65000.10", PriceChangePercent: "3.500"}},
			"ETHUSDT": {{Symbol: "ETHUSDT", LastPrice: "3100.00", PriceChangePercent: "-1.200"}},
		},
		errs:      map[string]error{},
		requested: nil,
	}
}

func (suite *BinanceClientTestSuite) TestSnapshot() {
	client := NewBinanceClientWithAPI(suite.api)

	table, err := client.Snapshot(context.Background(), []string{"btcusdt", "ETHUSDT"})
	suite.Require().NoError(err)

	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, suite.api.requested)
	suite.Require().Len(table.Rows, 2)
	suite.Equal(Row{BinanceColumnSymbol: "BTCUSDT", BinanceColumnPrice: "65000.10", BinanceColumnPctChange: "3.500"}, table.Rows[0])
	suite.Equal("-1.200", table.Rows[1][BinanceColumnPctChange])
}

func (suite *BinanceClientTestSuite) TestSnapshotSkipsInvalidSymbol() {
	suite.api.errs["FOOBAR"] = &common.APIError{Code: binanceErrInvalidSymbol, Message: "Invalid symbol."}
	client := NewBinanceClientWithAPI(suite.api)

	table, err := client.Snapshot(context.Background(), []string{"FOOBAR", "BTCUSDT"})
	suite.Require().NoError(err)
	suite.Len(table.Rows, 1)
}

func (suite *BinanceClientTestSuite) TestSnapshotRateLimited() {
	suite.api.errs["BTCUSDT"] = &common.APIError{Code: binanceErrTooManyRequests, Message: "Too many requests"}
	client := NewBinanceClientWithAPI(suite.api)

	_, err := client.Snapshot(context.Background(), []string{"BTCUSDT"})
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeProviderRateLimited, errors.GetCode(err))
	suite.True(errors.IsTransient(err))
}

func (suite *BinanceClientTestSuite) TestSnapshotNetworkFailure() {
	suite.api.errs["BTCUSDT"] = stderrors.New("connection reset")
	client := NewBinanceClientWithAPI(suite.api)

	_, err := client.Snapshot(context.Background(), []string{"BTCUSDT"})
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeProviderUnavailable, errors.GetCode(err))
}

func (suite *BinanceClientTestSuite) TestSnapshotMissingPrice() {
	suite.api.stats["BTCUSDT"] = []*binance.PriceChangeStats{{Symbol: "BTCUSDT"}}
	client := NewBinanceClientWithAPI(suite.api)

	_, err := client.Snapshot(context.Background(), []string{"BTCUSDT"})
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeProviderResponseInvalid, errors.GetCode(err))
	suite.False(errors.IsTransient(err))
}

func (suite *BinanceClientTestSuite) TestName() {
	suite.Equal("binance", NewBinanceClient().Name())
}
