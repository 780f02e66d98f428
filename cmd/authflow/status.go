// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// ProbeStatus holds the outcome of one health probe.
type ProbeStatus struct {
	Probe  string `json:"probe"`
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

var statusFlagKeys = map[string]string{
	"metrics-addr": "metrics.addr",
}

func newStatusCmd(deps *Deps) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running authflow server",
		Long: `Query the liveness and readiness endpoints of a running server on
its metrics address. Exits non-zero when the server is not ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, deps, jsonOutput)
		},
	}

	cmd.Flags().String("metrics-addr", "", "metrics/health address of the server (default: metrics.addr from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, deps *Deps, jsonOutput bool) error {
	cfg, err := loadConfig(cmd, deps, statusFlagKeys)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("metrics.addr is empty; the server exposes no health endpoints")
	}

	base := "http://" + dialAddr(cfg.Metrics.Addr)
	probes := []ProbeStatus{
		probe(deps.HTTPClient, "liveness", base+"/healthz/liveness"),
		probe(deps.HTTPClient, "readiness", base+"/healthz/readiness"),
	}

	if jsonOutput {
		data, err := json.MarshalIndent(probes, "", "  ")
		if err != nil {
			return oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Print(formatProbes(probes))
	}

	for _, p := range probes {
		if !p.OK {
			return oops.Code("NOT_READY").With("probe", p.Probe).Errorf("authflow is not ready: %s", p.Detail)
		}
	}
	return nil
}

func probe(client *http.Client, name, url string) ProbeStatus {
	status := ProbeStatus{Probe: name}

	resp, err := client.Get(url)
	if err != nil {
		status.Detail = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	status.Status = resp.StatusCode
	status.Detail = strings.TrimSpace(string(body))
	status.OK = resp.StatusCode == http.StatusOK
	return status
}

// dialAddr turns a listen address such as ":9100" into one a client can dial.
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func formatProbes(probes []ProbeStatus) string {
	var b strings.Builder
	for _, p := range probes {
		state := "ok"
		if !p.OK {
			state = "FAIL"
		}
		fmt.Fprintf(&b, "%-10s %-4s %s\n", p.Probe, state, p.Detail)
	}
	return b.String()
}
