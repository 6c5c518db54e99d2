// EthicALL - Slack assistant thread compliance bot
// License: MIT
//
// Copyright (c) 2026 EthicALL contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/ethicall/cmd/ethicall/internal"
	"github.com/tinyland-inc/ethicall/cmd/ethicall/internal/ask"
	"github.com/tinyland-inc/ethicall/cmd/ethicall/internal/gateway"
	"github.com/tinyland-inc/ethicall/cmd/ethicall/internal/version"
)

func NewEthicallCommand() *cobra.Command {
	short := fmt.Sprintf("%s ethicall - Slack assistant for workplace compliance v%s\n\n",
		internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:          "ethicall",
		Short:        short,
		Example:      "ethicall gateway",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		ask.NewAskCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewEthicallCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
