package ingestor

import (
	"context"
	"strings"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"github.com/rs/zerolog/log"
)

// DatadogSource pulls raw log messages from the Datadog Logs API.
type DatadogSource struct {
	Client *datadog.APIClient
	Config DatadogConfig
}

func NewDatadogSource(cfg DatadogConfig) *DatadogSource {
	return &DatadogSource{Client: InitializeDataDog(cfg), Config: cfg}
}

// Lines returns the messages within the configured lookback window, oldest
// first, so ids follow event order.
func (s *DatadogSource) Lines(ctx context.Context) ([]string, error) {
	duration, ok := TimeIntervalToDurationMapping[strings.ToUpper(s.Config.IntervalKey)]
	if !ok {
		duration = ONE_DAY
	}
	tr := NewDurationRange(duration)

	log.Info().
		Str("query", s.Config.Query).
		Str("start", tr.Start().String()).
		Str("end", tr.End().String()).
		Msg("Fetching logs from Datadog")

	logs, err := s.fetch(ctx, tr.Start(), tr.End())
	if err != nil {
		return nil, err
	}
	return Messages(logs), nil
}

func (s *DatadogSource) fetch(ctx context.Context, from, to time.Time) ([]datadogV2.Log, error) {
	api := datadogV2.NewLogsApi(s.Client)
	ddCtx := datadogContext(ctx, s.Config)
	query := s.Config.Query

	var allLogs []datadogV2.Log
	var cursor *string

	for {
		params := datadogV2.NewListLogsGetOptionalParameters()
		sort := datadogV2.LOGSSORT_TIMESTAMP_ASCENDING
		params.Sort = &sort
		params.FilterFrom = &from
		params.FilterTo = &to
		params.FilterQuery = &query

		if cursor != nil {
			params.PageCursor = cursor
		}

		resp, _, err := api.ListLogsGet(ddCtx, *params)
		if err != nil {
			log.Err(err).Msg("Error when calling LogsApi.ListLogsGet")
			return allLogs, err
		}

		allLogs = append(allLogs, resp.Data...)

		if resp.Meta == nil || resp.Meta.Page == nil || resp.Meta.Page.After == nil {
			break
		}

		after := *resp.Meta.Page.After
		if after == "" {
			break
		}
		cursor = &after
	}

	log.Info().
		Int("logCount", len(allLogs)).
		Msg("Successfully retrieved logs from Datadog")

	return allLogs, nil
}

// Messages extracts the raw message text of each log, dropping logs without
// one.
func Messages(logs []datadogV2.Log) []string {
	lines := make([]string, 0, len(logs))
	for _, l := range logs {
		if l.Attributes == nil || l.Attributes.Message == nil || *l.Attributes.Message == "" {
			continue
		}
		lines = append(lines, *l.Attributes.Message)
	}
	return lines
}
