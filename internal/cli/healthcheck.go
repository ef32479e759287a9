package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewHealthcheckCommand creates the healthcheck command, meant for container
// HEALTHCHECK probes.
func NewHealthcheckCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		target  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running server's /health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if target == "" {
				cfg, err := rootOpts.loadConfig()
				if err != nil {
					return f.Fail(err)
				}
				target = cfg.Listen
			}
			u, err := deriveHealthURL(target)
			if err != nil {
				return f.Fail(WrapExitError(ExitCommandError, "healthcheck", err))
			}
			if err := runHealthcheck(u, timeout); err != nil {
				return f.Fail(WrapExitError(ExitFailure, "healthcheck", err))
			}
			return f.Success(messageView{Message: "ok"})
		},
	}

	cmd.Flags().StringVar(&target, "url", "", "server address or URL (default: the configured listen address)")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "request timeout")
	return cmd
}

// deriveHealthURL turns a listen address (or base URL) into the URL of the
// health endpoint. Wildcard hosts are probed on loopback.
func deriveHealthURL(listen string) (string, error) {
	s := strings.TrimSpace(listen)
	if s == "" {
		return "", errors.New("empty listen address")
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("invalid url %q", s)
		}
		u.Path = strings.TrimRight(u.Path, "/") + "/health"
		u.RawQuery = ""
		u.Fragment = ""
		return u.String(), nil
	}

	// Bare port.
	if _, err := strconv.Atoi(s); err == nil {
		s = ":" + s
	}
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	if host == "" {
		host = "127.0.0.1"
	} else if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		if ip.To4() != nil {
			host = "127.0.0.1"
		} else {
			host = "::1"
		}
	}
	return "http://" + net.JoinHostPort(host, port) + "/health", nil
}

func runHealthcheck(u string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return nil
}
