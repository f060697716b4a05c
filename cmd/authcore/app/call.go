// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <method> <url>",
	Short: "Issue an authenticated request through the session pipeline",
	Long: `Call sends an HTTP request with the session's credentials attached. The
access token is renewed transparently if it has expired, and transient server
failures are retried. The response body is written to stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: callCmdFunc,
}

var callData string

func init() {
	callCmd.Flags().StringVarP(&callData, "data", "d", "", "Request body (sent as application/json)")
}

func callCmdFunc(cmd *cobra.Command, args []string) error {
	method := strings.ToUpper(args[0])
	url := args[1]

	manager, err := newManager()
	if err != nil {
		return err
	}
	defer manager.Close()

	var body io.Reader
	if callData != "" {
		body = strings.NewReader(callData)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, url, body)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if callData != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := manager.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
