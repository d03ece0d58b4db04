package util

import (
	"github.com/spf13/pflag"

	"github.com/bacalhau-project/eventcollector/cmd/util/output"
)

// OutputFormatFlags holds the presentation flags shared by every command
// that prints results. The format itself comes from the --output root flag.
func OutputFormatFlags(format *output.OutputOptions) *pflag.FlagSet {
	flagset := pflag.NewFlagSet("Output Format", pflag.ContinueOnError)

	flagset.BoolVar(&format.Pretty, "pretty", format.Pretty,
		`Pretty print the output. Only applies to json output.`)
	flagset.BoolVar(&format.HideHeader, "hide-header", format.HideHeader,
		`do not print the column headers.`)
	flagset.BoolVar(&format.NoStyle, "no-style", format.NoStyle,
		`remove all styling from table output.`)
	flagset.BoolVar(&format.Wide, "wide", format.Wide,
		`Print full values in the table results`)

	return flagset
}

// ResolveOutputOptions fills the format of opts from the resolved
// configuration.
func ResolveOutputOptions(format string, opts *output.OutputOptions) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	opts.Format = f
	return nil
}
