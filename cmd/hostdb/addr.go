package main

import "net"

// listenAddr builds the HTTP listen address for port on every interface
func listenAddr(port string) string {
	return net.JoinHostPort("", port)
}
