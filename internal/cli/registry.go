package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/pac"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the whole registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				reg, err := st.State(ctx)
				if err != nil {
					return f.Fail(err)
				}
				if f.Format == "json" {
					return f.Success(reg)
				}
				return f.Success(proxyListView(reg.Proxies))
			})
		},
	}
}

// NewPACCommand creates the pac command.
func NewPACCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pac",
		Short: "Compile the registry into a PAC script",
		Long: `Compile the registry into a PAC script and print it, or write it to a
file with --output. The script is byte-identical to what GET /pac serves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				reg, err := st.State(ctx)
				if err != nil {
					return f.Fail(err)
				}
				script := pac.Generate(reg)
				if output == "" {
					if f.Format == "json" {
						return f.Success(pacView{Script: script})
					}
					_, err := fmt.Fprint(f.Writer, script)
					return err
				}
				if err := os.WriteFile(output, []byte(script), 0o644); err != nil {
					return f.Fail(WrapExitError(ExitCommandError, "write pac", err))
				}
				return f.Success(messageView{Message: fmt.Sprintf("wrote %s", output)})
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the script to this file")
	return cmd
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <host>",
		Short: "Show what the PAC script returns for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				reg, err := st.State(ctx)
				if err != nil {
					return f.Fail(err)
				}
				host := args[0]
				return f.Success(resolveView{Host: host, Result: pac.FindProxy(reg, host)})
			})
		},
	}
}

func viewProxy(f *OutputFormatter, p model.Proxy) error {
	return f.Success(proxyView(p))
}
