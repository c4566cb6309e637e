package net

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
)

// URLScheme prefixes the share link a host hands to its peers.
const URLScheme = "collabcanvas://"

// GetOutgoingIP finds the preferred local IP address for the host to share.
// No packet is sent; dialing UDP only asks the kernel for a route.
func GetOutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		ip := firstIPv4()
		if ip.IsLoopback() {
			slog.Warn("no routable local address, share link points at loopback", "component", "net")
		}
		return ip.String()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// ShareLink formats the link peers use to join a hub on ip:port.
func ShareLink(ip string, port int) string {
	return fmt.Sprintf("%s%s:%d", URLScheme, ip, port)
}

// WebsocketURL turns a share link or a bare "host:port" into the hub's
// websocket endpoint.
func WebsocketURL(link string) (string, error) {
	addr := strings.TrimPrefix(link, URLScheme)
	addr = strings.TrimSuffix(addr, "/")
	if addr == "" {
		return "", fmt.Errorf("empty hub address in %q", link)
	}
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr, nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("hub address %q: %w", addr, err)
	}
	return "ws://" + addr + "/ws", nil
}
