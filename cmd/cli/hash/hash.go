package hash

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c2h5oh/datasize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/multiformats/go-multihash"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/eventcollector/cmd/util"
	"github.com/bacalhau-project/eventcollector/cmd/util/output"
	"github.com/bacalhau-project/eventcollector/pkg/bacerrors"
	"github.com/bacalhau-project/eventcollector/pkg/fanout"
	"github.com/bacalhau-project/eventcollector/pkg/lib/validate"
)

type HashOptions struct {
	OutputOpts output.OutputOptions
}

func NewHashOptions() *HashOptions {
	return &HashOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

// Row is one hashed file as printed to the user.
type Row struct {
	Path      string        `json:"Path"`
	Bytes     int64         `json:"Bytes"`
	Multihash string        `json:"Multihash,omitempty"`
	Duration  time.Duration `json:"Duration"`
	Error     string        `json:"Error,omitempty"`
}

func NewCmd() *cobra.Command {
	o := NewHashOptions()

	hashCmd := &cobra.Command{
		Use:   "hash PATTERN...",
		Short: "Hash files matching glob patterns to sha2-256 multihashes",
		Example: `  # Hash every go file below the current directory
  eventcollector hash '**/*.go'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd, args)
		},
	}
	hashCmd.Flags().AddFlagSet(util.OutputFormatFlags(&o.OutputOpts))
	return hashCmd
}

var columns = []output.TableColumn[Row]{
	{ColumnConfig: table.ColumnConfig{Name: "path"}, Value: func(r Row) string { return r.Path }},
	{ColumnConfig: table.ColumnConfig{Name: "size"}, Value: func(r Row) string {
		return datasize.ByteSize(r.Bytes).HumanReadable()
	}},
	{ColumnConfig: table.ColumnConfig{Name: "multihash"}, Value: func(r Row) string { return r.Multihash }},
	{ColumnConfig: table.ColumnConfig{Name: "error"}, Value: func(r Row) string { return r.Error }},
}

func (o *HashOptions) Run(cmd *cobra.Command, patterns []string) error {
	ctx := cmd.Context()
	cfg := util.GetConfig(ctx)
	if err := util.ResolveOutputOptions(cfg.Output.Format, &o.OutputOpts); err != nil {
		return err
	}

	paths, err := expand(patterns)
	if err != nil {
		return err
	}

	tasks := lo.Map(paths, func(path string, _ int) fanout.Task {
		return func(ctx context.Context) (any, error) {
			return hashFile(ctx, path)
		}
	})

	runner, progress, err := util.NewRunner(cmd, cfg, "hash", len(tasks))
	if err != nil {
		return err
	}
	report, runErr := runner.Run(ctx, tasks)
	progress.Stop(runErr == nil && report.Err() == nil)
	if report == nil {
		return runErr
	}

	rows := lo.Map(report.Results, func(res fanout.Result, i int) Row {
		row := Row{Path: paths[i], Duration: res.Duration}
		if v, ok := res.Value.(fileHash); ok {
			row.Bytes = v.Bytes
			row.Multihash = v.Multihash
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
		return bacerrors.New("%d of %d files could not be hashed", failed, report.Total).WithCode(bacerrors.TaskFailed)
	}
	return nil
}

// expand resolves every pattern to the sorted, de-duplicated set of regular
// files it matches.
func expand(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, bacerrors.New("invalid glob pattern %q", pattern).WithCode(bacerrors.InvalidArgument)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, bacerrors.Wrap(err, "failed to expand %q", pattern).WithCode(bacerrors.InvalidArgument)
		}
		paths = append(paths, matches...)
	}
	paths = lo.Uniq(paths)
	if len(paths) == 0 {
		return nil, bacerrors.New("no files matched %q", patterns).
			WithCode(bacerrors.InvalidArgument).
			WithHint("quote patterns containing ** so the shell does not expand them")
	}
	sort.Strings(paths)
	return paths, nil
}

type fileHash struct {
	Bytes     int64
	Multihash string
}

func hashFile(ctx context.Context, path string) (fileHash, error) {
	if err := validate.IsFile(path, "%s is not a regular file", path); err != nil {
		return fileHash{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return fileHash{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fileHash{}, err
	}
	if err := ctx.Err(); err != nil {
		return fileHash{}, err
	}

	mh, err := multihash.SumStream(f, multihash.SHA2_256, -1)
	if err != nil {
		return fileHash{}, err
	}
	return fileHash{Bytes: info.Size(), Multihash: mh.B58String()}, nil
}
