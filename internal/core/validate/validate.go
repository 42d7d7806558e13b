// Package validate provides shared validation functions for record input.
package validate

import (
	"fmt"
	"net"
	"strings"
)

// maxComputerName is the DNS host label length limit.
const maxComputerName = 63

// Required validates a value is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// ComputerName validates a computer name as a DNS host label.
func ComputerName(name string) error {
	if err := Required(name); err != nil {
		return err
	}
	if len(name) > maxComputerName {
		return fmt.Errorf("%q is longer than %d characters", name, maxComputerName)
	}
	if strings.Trim(name, "0123456789") == "" {
		return fmt.Errorf("%q cannot be entirely numeric", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return fmt.Errorf("%q contains invalid character %q", name, r)
		}
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return fmt.Errorf("%q cannot start or end with '-'", name)
	}
	return nil
}

// MACAddress validates a 48-bit MAC address and returns it in the
// colon-separated upper-case form the deployment database stores.
func MACAddress(mac string) (string, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(mac))
	if err != nil {
		return "", fmt.Errorf("invalid MAC address %q", mac)
	}
	if len(hw) != 6 {
		return "", fmt.Errorf("%q is not a 48-bit MAC address", mac)
	}
	return strings.ToUpper(hw.String()), nil
}
