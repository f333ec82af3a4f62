package pricelog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-realtime/internal/logger"
	"github.com/rxtech-lab/argo-realtime/internal/snapshot"
)

type QueryTestSuite struct {
	suite.Suite
	tempDir string
	manager *Manager
	now     time.Time
}

func TestQuerySuite(t *testing.T) {
	suite.Run(t, new(QueryTestSuite))
}

func (suite *QueryTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "pricelog-query-test-*")
	suite.Require().NoError(err)

	suite.tempDir = tempDir
	suite.manager = NewManager(filepath.Join(tempDir, "logs"), time.UTC, logger.NewNopLogger())
	suite.now = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

	yesterday := suite.now.AddDate(0, 0, -1)
	// yesterday gets archived by today's append
	suite.Require().NoError(suite.manager.Append([]snapshot.Record{
		testRecord("000001", "1", yesterday),
		testRecord("600519", "5", yesterday),
	}, yesterday, 7))
	suite.Require().NoError(suite.manager.Append([]snapshot.Record{
		testRecord("000001", "-4", suite.now),
		testRecord("600519", "0.5", suite.now),
	}, suite.now, 7))

	_, err = os.Stat(suite.manager.ArchivePath(yesterday))
	suite.Require().NoError(err)
}

func (suite *QueryTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *QueryTestSuite) TestQueryAll() {
	records, err := suite.manager.Query(context.Background(), QueryOptions{})
	suite.Require().NoError(err)
	suite.Require().Len(records, 4)

	suite.Equal("000001", records[0].Code)
	suite.True(records[0].CollectedAt.Before(records[2].CollectedAt))
	suite.True(records[1].Alert)
	suite.True(records[0].Name.IsNone())
}

func (suite *QueryTestSuite) TestQueryFilters() {
	records, err := suite.manager.Query(context.Background(), QueryOptions{Codes: []string{"600519"}})
	suite.Require().NoError(err)
	suite.Len(records, 2)

	records, err = suite.manager.Query(context.Background(), QueryOptions{AlertsOnly: true})
	suite.Require().NoError(err)
	suite.Len(records, 2)

	records, err = suite.manager.Query(context.Background(), QueryOptions{
		Start: optional.Some(suite.now.Add(-time.Hour)),
		End:   optional.Some(suite.now),
	})
	suite.Require().NoError(err)
	suite.Len(records, 2)

	records, err = suite.manager.Query(context.Background(), QueryOptions{Limit: 1})
	suite.Require().NoError(err)
	suite.Len(records, 1)
}

func (suite *QueryTestSuite) TestQueryEmptyDir() {
	manager := NewManager(filepath.Join(suite.tempDir, "missing"), time.UTC, logger.NewNopLogger())

	records, err := manager.Query(context.Background(), QueryOptions{})
	suite.NoError(err)
	suite.Empty(records)
}

func (suite *QueryTestSuite) TestExportParquet() {
	out := filepath.Join(suite.tempDir, "export.parquet")

	count, err := suite.manager.ExportParquet(context.Background(), QueryOptions{Codes: []string{"000001"}}, out)
	suite.Require().NoError(err)
	suite.Equal(2, count)

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	defer db.Close()

	var rows int
	suite.Require().NoError(db.QueryRow("SELECT COUNT(*) FROM read_parquet('" + out + "')").Scan(&rows))
	suite.Equal(2, rows)

	var alerts int
	suite.Require().NoError(db.QueryRow("SELECT COUNT(*) FROM read_parquet('" + out + "') WHERE alert").Scan(&alerts))
	suite.Equal(1, alerts)
}
