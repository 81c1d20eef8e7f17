package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"k5mirror/protocol"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the k5mirror version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("k5mirror %s\n", protocol.Version)
		},
	}
}
