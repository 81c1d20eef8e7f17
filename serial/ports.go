package serial

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes one enumerated serial port.
type PortInfo struct {
	Device  string
	Product string
	IsUSB   bool
}

// ListPorts enumerates the serial ports present on this machine.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Device:  d.Name,
			Product: d.Product,
			IsUSB:   d.IsUSB,
		})
	}
	return ports, nil
}
