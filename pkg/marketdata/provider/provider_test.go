package provider

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-realtime/pkg/errors"
)

type ProviderTestSuite struct {
	suite.Suite
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (suite *ProviderTestSuite) TestNewSnapshotProvider() {
	testCases := []struct {
		name         string
		providerType ProviderType
		config       any
		expectedName string
		code         errors.ErrorCode
	}{
		{"sina default", ProviderSina, nil, "sina", 0},
		{"sina config", ProviderSina, SinaConfig{BaseURL: "http://localhost:1"}, "sina", 0},
		{"binance", ProviderBinance, nil, "binance", 0},
		{"polygon", ProviderPolygon, PolygonConfig{ApiKey: "key"}, "polygon", 0},
		{"polygon without config", ProviderPolygon, nil, "", errors.ErrCodeInvalidProvider},
		{"polygon without key", ProviderPolygon, PolygonConfig{}, "", errors.ErrCodeInvalidConfiguration},
		{"unknown", ProviderType("yahoo"), nil, "", errors.ErrCodeInvalidProvider},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			p, err := NewSnapshotProvider(tc.providerType, tc.config)
			if tc.code != 0 {
				suite.Require().Error(err)
				suite.Equal(tc.code, errors.GetCode(err))
				suite.Nil(p)

				return
			}

			suite.Require().NoError(err)
			suite.Equal(tc.expectedName, p.Name())
		})
	}
}

func (suite *ProviderTestSuite) TestTableAppend() {
	table := NewTable("a", "b", "c")
	table.Append("1", "2")

	suite.Require().Len(table.Rows, 1)
	suite.Equal(Row{"a": "1", "b": "2"}, table.Rows[0])
	suite.True(table.HasColumn("c"))
	suite.False(table.HasColumn("d"))
}

func (suite *ProviderTestSuite) TestSinaConfigValidate() {
	cfg := SinaConfig{BaseURL: "not a url"}
	suite.Error(cfg.Validate())

	cfg = SinaConfig{BaseURL: "http://hq.sinajs.cn"}
	suite.NoError(cfg.Validate())
}
