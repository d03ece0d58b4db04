//go:build unit || !integration

package output

import (
	"bytes"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

var itemColumns = []TableColumn[item]{
	{ColumnConfig: table.ColumnConfig{Name: "name"}, Value: func(i item) string { return i.Name }},
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, YAMLFormat, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestOutputTable(t *testing.T) {
	cmd, out := newCmd()
	err := Output(cmd, itemColumns, OutputOptions{Format: TableFormat, NoStyle: true}, []item{{Name: "alpha"}, {Name: "beta"}})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "alpha")
	assert.Contains(t, out.String(), "beta")
}

func TestOutputHideHeader(t *testing.T) {
	cmd, out := newCmd()
	err := Output(cmd, itemColumns, OutputOptions{Format: TableFormat, NoStyle: true, HideHeader: true}, []item{{Name: "alpha"}})
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "NAME")
}

func TestOutputJSON(t *testing.T) {
	cmd, out := newCmd()
	err := Output(cmd, itemColumns, OutputOptions{Format: JSONFormat}, []item{{Name: "alpha", Count: 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"alpha","count":2}]`, out.String())
}

func TestOutputOneYAML(t *testing.T) {
	cmd, out := newCmd()
	err := OutputOne(cmd, itemColumns, OutputOptions{Format: YAMLFormat}, item{Name: "alpha", Count: 2})
	require.NoError(t, err)
	assert.YAMLEq(t, "name: alpha\ncount: 2\n", out.String())
}
