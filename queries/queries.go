package queries

import (
	"embed"
	"fmt"
)

//go:embed insert/*.sql schema/*.sql select/*.sql update/*.sql
var Files embed.FS

// ^^^ the go:embed directive is used to embed the files in the queries package
// meaning on compile time it will convert the files to binary data and embed it in the queries package

type InsertQueries struct {
	Metadata string
}

type SchemaQueries struct {
	TimeSeriesMetadata string
	TimeSeriesData     string
}

type SelectQueries struct {
	MetaDataBySymbol            string
	MostRecentTimestampBySymbol string
	TimeSeriesData              string
}

type UpdateQueries struct {
	LastRefreshedDate string
}

type QueryHelperStruct struct {
	Insert InsertQueries
	Schema SchemaQueries
	Select SelectQueries
	Update UpdateQueries
}

var QueryHelper = QueryHelperStruct{
	Insert: InsertQueries{
		Metadata: "insert/metadata.sql",
	},
	Schema: SchemaQueries{
		TimeSeriesMetadata: "schema/time_series_metadata.sql",
		TimeSeriesData:     "schema/time_series_data.sql",
	},
	Select: SelectQueries{
		MetaDataBySymbol:            "select/meta_data_by_symbol.sql",
		MostRecentTimestampBySymbol: "select/most_recent_timestamp_by_symbol.sql",
		TimeSeriesData:              "select/time_series_data.sql",
	},
	Update: UpdateQueries{
		LastRefreshedDate: "update/last_refreshed_date.sql",
	},
}

func Get(path string) string {
	content, err := Files.ReadFile(path)
	if err != nil {
		panic(fmt.Errorf("error reading query file: %w", err))
	}

	return string(content)
}
