package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/threadalert/internal/fixtures"
	"github.com/roach88/threadalert/internal/output"
)

// FixtureInfo is the JSON form of a registered fixture.
type FixtureInfo struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Expect            string `json:"expect"`
	Repeat            int    `json:"repeat"`
	Timeout           string `json:"timeout"`
	CompleteExecution bool   `json:"complete_execution"`
}

// NewFixturesCommand creates the fixtures command.
func NewFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "fixtures",
		Short:         "List built-in fixtures",
		Long:          "List the fixtures that run and scenario files can name, with the outcome each produces.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := fixtures.Default().List()

			if rootOpts.Format == "json" {
				infos := make([]FixtureInfo, 0, len(list))
				for _, f := range list {
					cfg := f.Config()
					infos = append(infos, FixtureInfo{
						Name:              f.Name,
						Description:       f.Description,
						Expect:            f.Expect,
						Repeat:            cfg.Repeat,
						Timeout:           cfg.Timeout.String(),
						CompleteExecution: cfg.CompleteExecution,
					})
				}
				return rootOpts.formatter(cmd).Success(infos)
			}

			output.Fixtures(cmd.OutOrStdout(), list, rootOpts.NoColor)
			return nil
		},
	}
}
