package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/spf13/cobra"

	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/ontokit"
	"github.com/jlrickert/ontokit/pkg/prefs"
)

// Deps carries flag values and the runtime shared by every command.
type Deps struct {
	Runtime  *toolkit.Runtime
	Shutdown func()

	ConfigPath string
	LogFile    string
	LogLevel   string
	LogJSON    bool
	JSON       bool
	DryRun     bool

	Kit *ontokit.Kit
}

// hostPath maps a runtime path onto the host filesystem so it can be handed
// to code that opens files directly.
func hostPath(rt *toolkit.Runtime, p string) (string, error) {
	v, err := rt.ResolvePath(p, false)
	if err != nil {
		return "", err
	}
	if jail := rt.GetJail(); jail != "" {
		return filepath.Join(jail, v), nil
	}
	return v, nil
}

// kit builds the Kit on first use so commands that never touch the
// repository do not need a config or selection.
func (d *Deps) kit(ctx context.Context) (*ontokit.Kit, error) {
	if d.Kit != nil {
		return d.Kit, nil
	}
	rt := d.Runtime
	cfg, err := ontokit.LoadConfig(ctx, rt, d.ConfigPath)
	if err != nil {
		return nil, err
	}
	selPath, err := cfg.SelectionPath(rt)
	if err != nil {
		return nil, err
	}
	selPath, err = hostPath(rt, selPath)
	if err != nil {
		return nil, err
	}
	sel := prefs.NewStore(selPath)
	if _, err := sel.Load(ctx); err != nil {
		return nil, err
	}

	k, err := ontokit.New(ontokit.Options{
		Config:    cfg,
		Selection: sel,
		Runtime:   rt,
	})
	if err != nil {
		return nil, err
	}
	d.Kit = k
	return k, nil
}

func NewRootCmd(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}
	if deps.Shutdown == nil {
		deps.Shutdown = func() {}
	}

	cmd := &cobra.Command{
		Use:           "ontokit",
		Short:         "manage ontology test cases stored in a GitHub repository",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt := deps.Runtime
			if rt == nil {
				return fmt.Errorf("runtime is required")
			}

			if deps.LogFile != "" || deps.LogJSON || deps.LogLevel != "" {
				// create a logger out-> stderr or file
				var out io.Writer = rt.Stream().Err
				if deps.LogFile != "" {
					p, err := hostPath(rt, deps.LogFile)
					if err != nil {
						return err
					}
					f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
					if err != nil {
						return err
					}
					out = f
					prev := deps.Shutdown
					deps.Shutdown = func() {
						_ = f.Close()
						prev()
					}
				}
				lg := mylog.NewLogger(mylog.LoggerConfig{
					Out:     out,
					Level:   mylog.ParseLevel(deps.LogLevel),
					JSON:    deps.LogJSON,
					Version: Version,
				})
				if err := rt.SetLogger(lg); err != nil {
					return err
				}
			}

			cmd.SetContext(internal.WithLogger(ctx, rt.Logger()))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&deps.LogFile, "log-file", "", "write logs to file (default stderr)")
	cmd.PersistentFlags().StringVar(&deps.LogLevel, "log-level", "warn", "minimum log level")
	cmd.PersistentFlags().BoolVar(&deps.LogJSON, "log-json", false, "output logs as JSON")
	cmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().BoolVar(&deps.JSON, "json", false, "print machine readable JSON")

	cmd.AddCommand(
		NewFragmentCmd(deps),
		NewInitCmd(deps),
		NewMCPCmd(deps),
		NewOntologyCmd(deps),
		NewRepoCmd(deps),
		NewRunsCmd(deps),
		NewStatsCmd(deps),
		NewTestCmd(deps),
		NewUploadCmd(deps),
		NewWatchCmd(deps),
	)

	return cmd
}
