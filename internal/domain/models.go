package domain

import "strings"

// Domain represents a DNS domain that hosts and subnets belong to
type Domain struct {
	ID              int64  `json:"id"`               // Unique identifier
	Name            string `json:"name"`             // Domain name, e.g. "example.com"
	Fullname        string `json:"fullname"`         // Optional description, unique when set
	TotalHosts      int64  `json:"total_hosts"`      // Hosts whose primary interface is in this domain
	HostgroupsCount int64  `json:"hostgroups_count"` // Hostgroups referencing this domain
}

// String returns the domain name.
func (d Domain) String() string {
	return d.Name
}

// NormalizeName trims surrounding whitespace and every leading and
// trailing dot from a domain name.
func NormalizeName(name string) string {
	return strings.Trim(strings.TrimSpace(name), ".")
}

// Host represents a managed machine. Its domain is the domain of its
// primary interface.
type Host struct {
	ID          int64  `json:"id"`                     // Unique identifier
	Name        string `json:"name"`                   // Host name
	IP          string `json:"ip,omitempty"`           // IP of the primary interface
	DomainID    *int64 `json:"domain_id,omitempty"`    // Domain of the primary interface
	LocationID  *int64 `json:"location_id,omitempty"`  // Location taxonomy
	HostgroupID *int64 `json:"hostgroup_id,omitempty"` // Hostgroup membership
}

// Interface represents a network interface attached to a host
type Interface struct {
	ID       int64  `json:"id"`                  // Unique identifier
	HostID   int64  `json:"host_id"`             // Foreign key to Host
	Name     string `json:"name"`                // Interface DNS name
	IP       string `json:"ip,omitempty"`        // IP address
	MAC      string `json:"mac,omitempty"`       // MAC address
	DomainID *int64 `json:"domain_id,omitempty"` // Foreign key to Domain
	Primary  bool   `json:"primary"`             // Main network identity of the host
}

// Hostgroup represents a group of hosts sharing defaults
type Hostgroup struct {
	ID       int64  `json:"id"`                  // Unique identifier
	Name     string `json:"name"`                // Hostgroup name
	DomainID *int64 `json:"domain_id,omitempty"` // Default domain
}

// Subnet represents an IPv4 or IPv6 network
type Subnet struct {
	ID        int64   `json:"id"`         // Unique identifier
	Name      string  `json:"name"`       // Subnet name
	Network   string  `json:"network"`    // CIDR, e.g. "192.168.1.0/24"
	DomainIDs []int64 `json:"domain_ids"` // Domains served by this subnet
}

// Location represents a location taxonomy
type Location struct {
	ID   int64  `json:"id"`   // Unique identifier
	Name string `json:"name"` // Location name
}
