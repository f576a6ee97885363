package utils

import (
	"net"
	"strings"
)

// FormatHostPort joins a host given on the command line with a port,
// bracketing IPv6 literals. A host already in brackets is accepted.
func FormatHostPort(host, port string) string {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	return net.JoinHostPort(host, port)
}
