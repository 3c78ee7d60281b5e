package alpha_vantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/sync/errgroup"

	c "olps/api"
	e "olps/extensions"
	m "olps/models"
)

// public
const (
	HostDefault = "www.alphavantage.co"
)

// private
const (
	// default query parameters
	defaultOutputSize = "full"
	defaultDataType   = "json"
	defaultTimeout    = time.Second * 30

	// free tier keys get throttled hard, keep concurrent symbol fetches low
	maxConcurrentRequests = 4

	// api request elements
	query    = "query"
	symbol   = "symbol"
	function = "function"
)

var (
	ErrNoQuote = errors.New("no quote available")

	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}

	// <struct field, json key suffix>
	barResultKeys = map[string]string{
		"Open":           ". open",
		"High":           ". high",
		"Low":            ". low",
		"Close":          ". close",
		"Volume":         ". volume",
		"AdjustedClose":  ". adjusted close",
		"DividendAmount": ". dividend amount",
	}

	// av returns 200 with one of these keys when throttled or when the request is bad
	apiMessageKeys = []string{"Error Message", "Note", "Information"}
)

type AlphaVantageClient struct {
	*c.Client
	Now func() time.Time
}

func GetClient(apiKey string) *AlphaVantageClient {
	return NewClient(c.ClientFactory(HostDefault, apiKey, defaultTimeout))
}

func NewClient(client *c.Client) *AlphaVantageClient {
	return &AlphaVantageClient{
		Client: client,
		Now:    time.Now,
	}
}

// FetchHistory gets aligned close prices for the universe covering the last duration
func (avc *AlphaVantageClient) FetchHistory(ctx context.Context, universe []string, duration time.Duration, granularity m.Granularity) (*m.PriceHistory, error) {
	ts := TimeSeriesForGranularity(granularity)
	cutoff := avc.Now().Add(-duration)

	results := make([][]*m.TimeSeriesData, len(universe))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRequests)

	for i, ticker := range universe {
		g.Go(func() error {
			res, err := avc.GetTimeSeries(gctx, ts, ticker)
			if err != nil {
				return fmt.Errorf("error fetching %s history for %s: %w", granularity, ticker, err)
			}

			f := func(d *m.TimeSeriesData) bool { return !d.Timestamp.Before(cutoff) }
			results[i] = e.FilterMultiplePtr(res.TimeSeries, f)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[string][]*m.TimeSeriesData, len(universe))
	for i, ticker := range universe {
		series[ticker] = results[i]
	}

	return m.AlignCloses(universe, series)
}

// FetchCurrent gets the last known price for every symbol in the universe
func (avc *AlphaVantageClient) FetchCurrent(ctx context.Context, universe []string) (map[string]float64, error) {
	res := make(map[string]float64, len(universe))
	for _, ticker := range universe {
		quote, err := avc.GetGlobalQuote(ctx, ticker)
		if err != nil {
			return nil, err
		}

		price, ok := quote.LastKnownPrice()
		if !ok {
			return nil, fmt.Errorf("%w for %s", ErrNoQuote, ticker)
		}
		if !quote.Price.Valid || quote.Price.Float64 <= 0 {
			log.Printf("no live price for %s, using previous close %v", ticker, price)
		}

		res[ticker] = price
	}
	return res, nil
}

// https://www.alphavantage.co/documentation/#time-series-data
func (avc *AlphaVantageClient) GetTimeSeries(ctx context.Context, timeSeries TimeSeries, ticker string) (*m.TimeSeriesResult, error) {
	endpoint := avc.buildRequestPath(map[string]string{
		function: timeSeries.Function(),
		symbol:   ticker,
	})

	raw, err := avc.request(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	metaData, timeZone, err := parseMetaData(raw)
	if err != nil {
		return nil, err
	}

	timeSeriesData, err := parseTimeSeriesDataResult(raw, timeSeries.TimeSeriesKey(), timeZone)
	if err != nil {
		return nil, err
	}

	return &m.TimeSeriesResult{
		Metadata:   metaData,
		TimeSeries: timeSeriesData,
	}, nil
}

// https://www.alphavantage.co/documentation/#latestprice
func (avc *AlphaVantageClient) GetGlobalQuote(ctx context.Context, ticker string) (*m.Quote, error) {
	endpoint := avc.buildRequestPath(map[string]string{
		function: "GLOBAL_QUOTE",
		symbol:   ticker,
	})

	raw, err := avc.request(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var quoteElements map[string]string
	if err := json.Unmarshal(raw["Global Quote"], &quoteElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling global quote for %s: %w", ticker, err)
	}

	if len(quoteElements) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoQuote, ticker)
	}

	keys := slices.Collect(maps.Keys(quoteElements))
	value := func(suffix string) string {
		k, err := e.FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, suffix) })
		if err != nil {
			return ""
		}
		return quoteElements[k]
	}

	res := &m.Quote{
		Symbol:        ticker,
		Price:         parseFloat(value(". price")),
		PreviousClose: parseFloat(value(". previous close")),
	}

	if day := value(". latest trading day"); day != "" {
		if t, err := parseDate(day, time.UTC); err == nil {
			res.LatestTradingDay = t
		}
	}

	return res, nil
}

func (avc *AlphaVantageClient) request(ctx context.Context, endpoint *url.URL) (map[string]json.RawMessage, error) {
	if avc == nil || avc.Client == nil {
		return nil, fmt.Errorf("alpha vantage client has not been set")
	}

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	for _, key := range apiMessageKeys {
		if msg, ok := raw[key]; ok {
			return nil, fmt.Errorf("alpha vantage returned %s: %s", strings.ToLower(key), string(msg))
		}
	}

	return raw, nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	// build our URL
	endpoint := &url.URL{}
	endpoint.Path = query

	// base parameters
	query := endpoint.Query()
	query.Set("apikey", avc.Client.ApiKey)
	query.Set("datatype", defaultDataType)
	query.Set("outputsize", defaultOutputSize)

	// additional parameters
	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

func parseRawJson(reader io.Reader) (raw map[string]json.RawMessage, err error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	// converting to a <string, raw message> map
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return
}

func parseMetaData(raw map[string]json.RawMessage) (*m.TimeSeriesMetadata, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw["Meta Data"], &metadataElements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	metaDataKeys := slices.Collect(maps.Keys(metadataElements))

	// parse symbol
	sf := func(s string) bool { return strings.HasSuffix(s, ". Symbol") }
	symbolKey, err := e.FilterSingle(metaDataKeys, sf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	// parse time zone
	tzf := func(s string) bool { return strings.HasSuffix(s, ". Time Zone") }
	timeZoneKey, err := e.FilterSingle(metaDataKeys, tzf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(metadataElements[timeZoneKey])
	if err != nil {
		return nil, nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", metadataElements[timeZoneKey], err)
	}

	// parse last refreshed
	lrf := func(s string) bool { return strings.HasSuffix(s, ". Last Refreshed") }
	lastRefreshedKey, err := e.FilterSingle(metaDataKeys, lrf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(metadataElements[lastRefreshedKey], timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date")
	}

	res := m.TimeSeriesMetadata{
		Symbol:        metadataElements[symbolKey],
		LastRefreshed: lastRefreshed,
		TimeZone:      metadataElements[timeZoneKey],
	}

	inf := func(s string) bool { return strings.HasSuffix(s, ". Information") }
	if informationKey, err := e.FilterSingle(metaDataKeys, inf); err == nil {
		res.Information = null.StringFrom(metadataElements[informationKey])
	}

	return &res, timeZone, nil
}

// parseTimeSeriesDataResult returns the bars under key sorted oldest first
func parseTimeSeriesDataResult(raw map[string]json.RawMessage, key string, location *time.Location) ([]*m.TimeSeriesData, error) {
	var timeSeriesElements map[string]map[string]string
	if err := json.Unmarshal(raw[key], &timeSeriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series: %w", err)
	}

	if len(timeSeriesElements) == 0 {
		return nil, fmt.Errorf("no time series elements found under %s", key)
	}

	// populate the lookups
	var firstValue map[string]string
	for _, v := range timeSeriesElements {
		firstValue = v
		break
	}

	lookup, err := getLookupKey(barResultKeys, firstValue)
	if err != nil {
		return nil, err
	}

	timeSeries := make([]*m.TimeSeriesData, 0, len(timeSeriesElements))
	for timeSeriesKey, timeSeriesValue := range timeSeriesElements {
		timestamp, err := parseDate(timeSeriesKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting TIMESTAMP from string to time.Time: %w", err)
		}

		bar, err := parseBar(timeSeriesValue, lookup)
		if err != nil {
			return nil, fmt.Errorf("error parsing bar for %s: %w", timeSeriesKey, err)
		}

		bar.Timestamp = timestamp
		timeSeries = append(timeSeries, bar)
	}

	slices.SortFunc(timeSeries, func(i, j *m.TimeSeriesData) int {
		return i.Timestamp.Compare(j.Timestamp)
	})

	return timeSeries, nil
}

func parseBar(value, lookup map[string]string) (*m.TimeSeriesData, error) {
	res := &m.TimeSeriesData{}
	v := reflect.ValueOf(res).Elem()
	for jsonKey, structAttribute := range lookup {
		field := v.FieldByName(structAttribute)
		if !field.IsValid() {
			return nil, fmt.Errorf("field %s does not exist", structAttribute)
		}
		if !field.CanSet() {
			return nil, fmt.Errorf("field %s cannot be set", structAttribute)
		}

		field.Set(reflect.ValueOf(parseFloat(value[jsonKey])))
	}
	return res, nil
}

// getLookupKey maps <json key, struct field> from the keys present on a single bar
func getLookupKey(expectedKeys, values map[string]string) (map[string]string, error) {
	res := make(map[string]string)
	responseValueHeaders := slices.Collect(maps.Keys(values))

	for key, value := range expectedKeys {
		f := func(s string) bool {
			return strings.HasSuffix(strings.ToLower(s), strings.ToLower(value))
		}
		if jsonKey, err := e.FilterSingle(responseValueHeaders, f); err == nil {
			res[jsonKey] = key
		}
	}

	if len(res) == 0 {
		return nil, fmt.Errorf("error generating key value map from av response object. Available headers: %v", responseValueHeaders)
	}

	return res, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		log.Printf("default time zone hit, %s is not recognized", location)
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation", loc)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

func parseFloat(val string) null.Float {
	if val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return null.FloatFrom(f)
		}
	}
	return null.Float{}
}
