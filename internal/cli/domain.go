package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

// NewDomainCommand creates the domain command group.
func NewDomainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain",
		Short: "Manage the domains routed through a proxy",
		Long: `Manage the domains routed through a proxy.

Commands that change the registry edit the file directly and take the
registry lock first. While serve is running against the same file they fail;
use the HTTP API instead.`,
	}
	cmd.AddCommand(newDomainAddCommand(rootOpts))
	cmd.AddCommand(newDomainRemoveCommand(rootOpts))
	cmd.AddCommand(newDomainTagCommand(rootOpts))
	return cmd
}

func newDomainAddCommand(rootOpts *RootOptions) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "add <proxy-id> <domain>",
		Short: "Route a domain through a proxy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withWritableStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				d, err := st.AddDomain(ctx, args[0], model.Domain{Name: args[1], Tag: tag})
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(domainView(d))
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "free-text annotation")
	return cmd
}

func newDomainRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <proxy-id> <domain>",
		Aliases: []string{"rm"},
		Short:   "Stop routing a domain through a proxy",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withWritableStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				removed, err := st.RemoveDomain(ctx, args[0], args[1])
				if err != nil {
					return f.Fail(err)
				}
				msg := fmt.Sprintf("removed %s from %s", args[1], args[0])
				if !removed {
					msg = fmt.Sprintf("%s was not routed through %s", args[1], args[0])
				}
				return f.Success(messageView{Message: msg, ID: args[0], Domain: args[1]})
			})
		},
	}
}

func newDomainTagCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <proxy-id> <domain> [tag]",
		Short: "Set or clear a domain's tag",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withWritableStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				var tag string
				if len(args) == 3 {
					tag = args[2]
				}
				d, err := st.UpdateDomainTag(ctx, args[0], args[1], tag)
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(domainView(d))
			})
		},
	}
}
