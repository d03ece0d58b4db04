package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bacalhau-project/eventcollector/cmd/util"
	"github.com/bacalhau-project/eventcollector/cmd/util/output"
	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/config"
	"github.com/bacalhau-project/eventcollector/pkg/fanout"
)

type ProbeOptions struct {
	OutputOpts output.OutputOptions
}

func NewProbeOptions() *ProbeOptions {
	return &ProbeOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

// Row is one probed URL as printed to the user.
type Row struct {
	URL        string        `json:"URL"`
	StatusCode int           `json:"StatusCode,omitempty"`
	Bytes      int64         `json:"Bytes"`
	Duration   time.Duration `json:"Duration"`
	Error      string        `json:"Error,omitempty"`
}

func NewCmd() *cobra.Command {
	o := NewProbeOptions()

	probeCmd := &cobra.Command{
		Use:   "probe URL...",
		Short: "Fetch URLs concurrently and report status, size and latency",
		Example: `  # Probe two endpoints, giving up after five seconds
  eventcollector probe --timeout 5s https://example.com https://example.org`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd, args)
		},
	}
	probeCmd.Flags().AddFlagSet(util.OutputFormatFlags(&o.OutputOpts))
	return probeCmd
}

var columns = []output.TableColumn[Row]{
	{ColumnConfig: table.ColumnConfig{Name: "url", WidthMax: 60}, Value: func(r Row) string { return r.URL }},
	{ColumnConfig: table.ColumnConfig{Name: "status"}, Value: func(r Row) string {
		if r.StatusCode == 0 {
			return ""
		}
		return fmt.Sprint(r.StatusCode)
	}},
	{ColumnConfig: table.ColumnConfig{Name: "size"}, Value: func(r Row) string {
		return datasize.ByteSize(r.Bytes).HumanReadable()
	}},
	{ColumnConfig: table.ColumnConfig{Name: "duration"}, Value: func(r Row) string {
		return r.Duration.Round(time.Millisecond).String()
	}},
	{ColumnConfig: table.ColumnConfig{Name: "error"}, Value: func(r Row) string { return r.Error }},
}

func (o *ProbeOptions) Run(cmd *cobra.Command, urls []string) error {
	ctx := cmd.Context()
	cfg := util.GetConfig(ctx)
	if err := util.ResolveOutputOptions(cfg.Output.Format, &o.OutputOpts); err != nil {
		return err
	}

	for _, raw := range urls {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return bacerrors.New("invalid URL %q", raw).
				WithCode(bacerrors.InvalidArgument).
				WithHint("URLs must be absolute, for example https://example.com")
		}
	}

	client := NewClient(cfg.Probe)
	tasks := lo.Map(urls, func(u string, _ int) fanout.Task {
		return func(ctx context.Context) (any, error) {
			return fetch(ctx, client, u)
		}
	})

	runner, progress, err := util.NewRunner(cmd, cfg, "probe", len(tasks))
	if err != nil {
		return err
	}
	report, runErr := runner.Run(ctx, tasks)
	progress.Stop(runErr == nil && report.Err() == nil)
	if report == nil {
		return runErr
	}

	rows := lo.Map(report.Results, func(res fanout.Result, i int) Row {
		row := Row{URL: urls[i], Duration: res.Duration}
		if v, ok := res.Value.(fetchResult); ok {
			row.StatusCode = v.StatusCode
			row.Bytes = v.Bytes
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		return row
	})
	if err := output.Output(cmd, columns, o.OutputOpts, rows); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if failed := len(report.Failed()); failed > 0 {
		return bacerrors.New("%d of %d probes failed", failed, report.Total).WithCode(bacerrors.TaskFailed)
	}
	return nil
}

// NewClient builds a retrying HTTP client from the probe configuration.
func NewClient(cfg config.ProbeConfig) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.HTTPClient.Timeout = cfg.RequestTimeout
	client.HTTPClient.Transport = otelhttp.NewTransport(client.HTTPClient.Transport)
	client.Logger = leveledLogger{logger: log.Logger.With().Str("component", "probe").Logger()}
	return client
}

type fetchResult struct {
	StatusCode int
	Bytes      int64
}

func fetch(ctx context.Context, client *retryablehttp.Client, u string) (fetchResult, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fetchResult{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fetchResult{}, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	res := fetchResult{StatusCode: resp.StatusCode, Bytes: n}
	if err != nil {
		return res, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return res, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return res, nil
}
