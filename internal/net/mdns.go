package net

import (
	"fmt"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service a hub advertises on the LAN.
const ServiceType = "_collabcanvas._tcp"

// Advertise announces a hub listening on port. Shut the returned server
// down to withdraw the record.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, []string{"collabcanvas"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Discover browses the LAN for hubs for up to timeout and returns their
// "ip:port" addresses, sorted and without duplicates.
func Discover(timeout time.Duration) ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	var (
		mu    sync.Mutex
		found = map[string]struct{}{}
		done  = make(chan struct{})
	)
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			mu.Lock()
			found[fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port)] = struct{}{}
			mu.Unlock()
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return nil, fmt.Errorf("mdns query: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	addrs := make([]string, 0, len(found))
	for a := range found {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs, nil
}

// firstIPv4 returns the first IPv4 address of an interface that is up and
// not a loopback, or 127.0.0.1.
func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}
