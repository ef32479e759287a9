package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/pacservice-go/internal/model"
	"github.com/John-Robertt/pacservice-go/internal/store"
)

// NewProxyCommand creates the proxy command group.
func NewProxyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Manage proxies in the registry file",
		Long: `Manage proxies in the registry file.

Commands that change the registry edit the file directly and take the
registry lock first. While serve is running against the same file they fail;
use the HTTP API instead.`,
	}
	cmd.AddCommand(newProxyListCommand(rootOpts))
	cmd.AddCommand(newProxyGetCommand(rootOpts))
	cmd.AddCommand(newProxyAddCommand(rootOpts))
	cmd.AddCommand(newProxyUpdateCommand(rootOpts))
	cmd.AddCommand(newProxyDeleteCommand(rootOpts))
	return cmd
}

func newProxyListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List proxies in PAC order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				proxies, err := st.ListProxies(ctx)
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(proxyListView(proxies))
			})
		},
	}
}

func newProxyGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one proxy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				p, err := st.GetProxy(ctx, args[0])
				if err != nil {
					return f.Fail(err)
				}
				return viewProxy(f, p)
			})
		},
	}
}

type proxyFlags struct {
	id      string
	proto   string
	host    string
	port    int
	domains []string
}

func (pf *proxyFlags) register(cmd *cobra.Command, withID bool) {
	if withID {
		cmd.Flags().StringVar(&pf.id, "id", "", "proxy id (default: generated UUIDv7)")
	}
	cmd.Flags().StringVar(&pf.proto, "proto", "", "SOCKS, SOCKS5 or PROXY")
	cmd.Flags().StringVar(&pf.host, "host", "", "proxy host")
	cmd.Flags().IntVar(&pf.port, "port", 0, "proxy port")
	cmd.Flags().StringArrayVarP(&pf.domains, "domain", "d", nil, "domain routed through the proxy, as name or name=tag (repeatable)")
}

func newProxyAddCommand(rootOpts *RootOptions) *cobra.Command {
	pf := &proxyFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a proxy",
		Example: `  pacservice proxy add --proto SOCKS5 --host 127.0.0.1 --port 1080 -d example.com=work -d corp.example`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withWritableStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				id := pf.id
				if !cmd.Flags().Changed("id") {
					u, err := uuid.NewV7()
					if err != nil {
						return f.Fail(err)
					}
					id = u.String()
				}
				p := model.Proxy{
					ID:      id,
					Proto:   model.Proto(pf.proto),
					Host:    pf.host,
					Port:    pf.port,
					Domains: parseDomainArgs(pf.domains),
				}
				created, err := st.AddProxy(ctx, p)
				if err != nil {
					return f.Fail(err)
				}
				return viewProxy(f, created)
			})
		},
	}

	pf.register(cmd, true)
	return cmd
}

func newProxyUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	pf := &proxyFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Patch a proxy; only the given flags change",
		Long: `Patch a proxy. Only flags given on the command line change. Passing
--domain replaces the whole domain list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withWritableStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				var patch model.ProxyPatch
				flags := cmd.Flags()
				if flags.Changed("proto") {
					proto := model.Proto(pf.proto)
					patch.Proto = &proto
				}
				if flags.Changed("host") {
					patch.Host = &pf.host
				}
				if flags.Changed("port") {
					patch.Port = &pf.port
				}
				if flags.Changed("domain") {
					domains := parseDomainArgs(pf.domains)
					patch.Domains = &domains
				}
				updated, err := st.UpdateProxy(ctx, args[0], patch)
				if err != nil {
					return f.Fail(err)
				}
				return viewProxy(f, updated)
			})
		},
	}

	pf.register(cmd, false)
	return cmd
}

func newProxyDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a proxy and its domains",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withWritableStore(cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				if _, err := st.DeleteProxy(ctx, args[0]); err != nil {
					return f.Fail(err)
				}
				return f.Success(messageView{Message: fmt.Sprintf("deleted proxy %s", args[0]), ID: args[0]})
			})
		},
	}
}

// parseDomainArgs splits "name=tag" arguments. Validation happens in the store.
func parseDomainArgs(args []string) []model.Domain {
	out := make([]model.Domain, 0, len(args))
	for _, a := range args {
		name, tag, _ := strings.Cut(a, "=")
		out = append(out, model.Domain{Name: name, Tag: tag})
	}
	return out
}
