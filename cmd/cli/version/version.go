package version

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bacalhau-project/eventcollector/cmd/util"
	"github.com/bacalhau-project/eventcollector/cmd/util/output"
	"github.com/bacalhau-project/eventcollector/pkg/version"
)

type VersionOptions struct {
	OutputOpts output.OutputOptions
}

func NewVersionOptions() *VersionOptions {
	return &VersionOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	oV := NewVersionOptions()

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Get the client version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, oV)
		},
	}
	versionCmd.Flags().AddFlagSet(util.OutputFormatFlags(&oV.OutputOpts))
	return versionCmd
}

func runVersion(cmd *cobra.Command, oV *VersionOptions) error {
	err := oV.Run(cmd)
	if err != nil {
		return fmt.Errorf("error running version: %w", err)
	}
	return nil
}

var columns = []output.TableColumn[*version.BuildVersionInfo]{
	{
		ColumnConfig: table.ColumnConfig{Name: "version"},
		Value:        func(v *version.BuildVersionInfo) string { return v.GitVersion },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "commit"},
		Value:        func(v *version.BuildVersionInfo) string { return v.GitCommit },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "go"},
		Value:        func(v *version.BuildVersionInfo) string { return v.GoVersion },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "platform"},
		Value:        func(v *version.BuildVersionInfo) string { return v.GOOS + "/" + v.GOARCH },
	},
}

func (oV *VersionOptions) Run(cmd *cobra.Command) error {
	cfg := util.GetConfig(cmd.Context())
	if err := util.ResolveOutputOptions(cfg.Output.Format, &oV.OutputOpts); err != nil {
		return err
	}
	return output.OutputOne(cmd, columns, oV.OutputOpts, version.Get())
}
