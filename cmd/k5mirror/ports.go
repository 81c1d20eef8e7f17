package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"k5mirror/serial"
)

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serial.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("No serial ports found")
				return nil
			}

			fmt.Println("Available serial ports:")
			for _, p := range ports {
				if p.Product != "" {
					fmt.Printf("  %s: %s\n", p.Device, p.Product)
				} else {
					fmt.Printf("  %s\n", p.Device)
				}
			}
			return nil
		},
	}
}
