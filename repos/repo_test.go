package repos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	ex "olps/extensions"
	m "olps/models"
)

func Test_Base_CanGetConnectionAndPing(t *testing.T) {
	ctx := context.Background()
	pg := getConnection(t, ctx)

	if err := pg.Ping(ctx); err != nil {
		t.Errorf("error pinging postgres database: %s", err)
	}
}

func Test_TimeSeriesMetaDataRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_OLPS_TEST"

	testMetaData := m.TimeSeriesMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	exists, err := pg.GetMetaDataBySymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error determining if meta symbol exists for %s (should be false): %s", symbol, err)
	}
	if exists != nil {
		t.Fatalf("symbol %s has not been inserted yet, so exists should be nil", symbol)
	}

	if err := pg.InsertNewMetaData(ctx, &testMetaData, nil); err != nil {
		t.Fatalf("error inserting new meta data: %s", err)
	}
	if testMetaData.Id == 0 {
		t.Fatalf("id for test meta data failed to set properly")
	}

	defer pg.deleteTestTimeSeriesData(t, ctx, testMetaData.Id)

	res, err := pg.GetMetaDataBySymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting meta data by symbol, %s", err)
	}

	ex.AssertAreEqual(t, "id", testMetaData.Id, res.Id)
	ex.AssertAreEqual(t, "symbol", testMetaData.Symbol, res.Symbol)
	if !testMetaData.LastRefreshed.Equal(res.LastRefreshed) {
		t.Fatalf("last refreshed time did not match, inserted %s, got back %s", testMetaData.LastRefreshed.Format(time.RFC3339), res.LastRefreshed.Format(time.RFC3339))
	}

	refreshed := time.Date(2025, time.November, 7, 0, 0, 0, 0, time.UTC)
	if err := pg.UpdateLastRefreshedDate(ctx, symbol, refreshed, nil); err != nil {
		t.Fatalf("error updating last refreshed: %s", err)
	}

	res, err = pg.GetMetaDataBySymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting meta data by symbol, %s", err)
	}
	if !refreshed.Equal(res.LastRefreshed) {
		t.Fatalf("expected last refreshed %s, got %s", ex.FmtShort(refreshed), ex.FmtShort(res.LastRefreshed))
	}
}

func Test_TimeSeriesDataRepo_CanInsertAndGet(t *testing.T) {
	symbol := "_OLPS_TEST2"

	testMetaData := m.TimeSeriesMetadata{
		Symbol:        symbol,
		LastRefreshed: time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
	}

	ctx := context.Background()
	pg := getConnection(t, ctx)

	if err := pg.InsertNewMetaData(ctx, &testMetaData, nil); err != nil {
		t.Fatalf("error inserting new meta data: %s", err)
	}

	defer pg.deleteTestTimeSeriesData(t, ctx, testMetaData.Id)

	testTimeSeriesData := []*m.TimeSeriesData{
		{
			Timestamp:      time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC),
			Open:           null.FloatFrom(100),
			High:           null.FloatFrom(105),
			Low:            null.FloatFrom(95),
			Close:          null.FloatFrom(102),
			Volume:         null.FloatFrom(1000),
			AdjustedClose:  null.FloatFrom(50),
			DividendAmount: null.FloatFrom(1),
		},
		{
			Timestamp:     time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
			Open:          null.FloatFrom(102),
			High:          null.FloatFrom(107),
			Low:           null.FloatFrom(97),
			Close:         null.FloatFrom(104),
			Volume:        null.FloatFrom(2000),
			AdjustedClose: null.FloatFrom(51),
		},
	}

	ct, err := pg.InsertTimeSeriesData(ctx, testTimeSeriesData, &testMetaData.Id, nil)
	if err != nil {
		t.Fatalf("error inserting time series data: %s", err)
	}
	ex.AssertAreEqual(t, "rows inserted", int64(len(testTimeSeriesData)), ct)

	mrd, err := pg.GetMostRecentTimestampForSymbol(ctx, symbol)
	if err != nil {
		t.Fatalf("error getting most recent timestamp: %s", err)
	}
	if mrd == nil || !mrd.Equal(testTimeSeriesData[1].Timestamp) {
		t.Fatalf("expected most recent timestamp %v, got %v", testTimeSeriesData[1].Timestamp, mrd)
	}

	ts, err := pg.GetTimeSeriesData(ctx, symbol, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("error getting time series data by symbol: %s", err)
	}
	ex.AssertAreEqual(t, "rows returned", 2, len(ts))

	// oldest first
	compareTimeSeriesData(t, testTimeSeriesData[0], ts[0])
	compareTimeSeriesData(t, testTimeSeriesData[1], ts[1])
}

func compareTimeSeriesData(t *testing.T, expected, actual *m.TimeSeriesData) {
	t.Helper()
	if !expected.Timestamp.Equal(actual.Timestamp) {
		t.Fatalf("value mismatch for timestamp, expected %v, got %v", expected.Timestamp.Format(time.RFC3339), actual.Timestamp.Format(time.RFC3339))
	}
	ex.AssertAreEqual(t, "open", expected.Open, actual.Open)
	ex.AssertAreEqual(t, "high", expected.High, actual.High)
	ex.AssertAreEqual(t, "low", expected.Low, actual.Low)
	ex.AssertAreEqual(t, "close", expected.Close, actual.Close)
	ex.AssertAreEqual(t, "volume", expected.Volume, actual.Volume)
	ex.AssertAreEqual(t, "adjusted close", expected.AdjustedClose, actual.AdjustedClose)
	ex.AssertAreEqual(t, "dividend amount", expected.DividendAmount, actual.DividendAmount)
}

// getConnection skips the calling test when no database is configured
func getConnection(t *testing.T, ctx context.Context) *Postgres {
	t.Helper()
	_ = godotenv.Load("../.env")

	connectionString := os.Getenv("DATABASE_URL")
	if connectionString == "" {
		t.Skip("DATABASE_URL not set, skipping postgres repository test")
	}

	res, err := GetPostgresConnection(ctx, connectionString)
	if err != nil {
		t.Fatalf("error getting postgres connection: %s", err)
	}

	t.Cleanup(func() {
		res.Close()
	})

	if err := res.EnsureSchema(ctx); err != nil {
		t.Fatalf("error ensuring schema: %s", err)
	}

	return res
}

func (pg *Postgres) deleteTestTimeSeriesData(t *testing.T, ctx context.Context, id int32) {
	t.Helper()

	args := pgx.NamedArgs{"source_id": id}
	if _, err := pg.db.Exec(ctx, "DELETE FROM av_time_series_data WHERE source_id = @source_id", args); err != nil {
		t.Errorf("cleanup av_time_series_data failed: %s", err)
	}

	if _, err := pg.db.Exec(ctx, "DELETE FROM av_time_series_metadata WHERE id = @source_id", args); err != nil {
		t.Errorf("cleanup av_time_series_metadata failed: %s", err)
	}
}
