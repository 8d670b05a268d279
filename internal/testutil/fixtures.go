package testutil

import (
	"database/sql"
	"testing"

	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// Fixtures holds the named records inserted by LoadFixtures.
type Fixtures struct {
	Domains    map[string]domain.Domain
	Locations  map[string]domain.Location
	Subnets    map[string]domain.Subnet
	Hostgroups map[string]domain.Hostgroup
}

// LoadFixtures inserts a small, fixed data set:
//
//	locations:  location1, location2
//	domains:    mydomain (mydomain.net, selected in location1), yourdomain (yourdomain.net)
//	subnets:    one (10.0.0.0/24, serves mydomain), two (10.0.1.0/24)
//	hostgroups: common (mydomain), db (no domain)
//
// Counters are recomputed after loading, the way a fresh import would be.
func LoadFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()

	f := &Fixtures{
		Domains:    map[string]domain.Domain{},
		Locations:  map[string]domain.Location{},
		Subnets:    map[string]domain.Subnet{},
		Hostgroups: map[string]domain.Hostgroup{},
	}

	insert := func(query string, args ...any) int64 {
		t.Helper()
		res, err := db.Exec(query, args...)
		if err != nil {
			t.Fatalf("Failed to load fixture %q: %v", query, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			t.Fatalf("Failed to read fixture id: %v", err)
		}
		return id
	}

	for _, name := range []string{"location1", "location2"} {
		id := insert("INSERT INTO locations (name) VALUES (?)", name)
		f.Locations[name] = domain.Location{ID: id, Name: name}
	}

	domains := []struct{ key, name string }{
		{"mydomain", "mydomain.net"},
		{"yourdomain", "yourdomain.net"},
	}
	for _, d := range domains {
		id := insert("INSERT INTO domains (name) VALUES (?)", d.name)
		f.Domains[d.key] = domain.Domain{ID: id, Name: d.name}
	}
	insert("INSERT INTO domain_locations (domain_id, location_id) VALUES (?, ?)",
		f.Domains["mydomain"].ID, f.Locations["location1"].ID)

	subnets := []struct{ key, network string }{
		{"one", "10.0.0.0/24"},
		{"two", "10.0.1.0/24"},
	}
	for _, s := range subnets {
		id := insert("INSERT INTO subnets (name, network) VALUES (?, ?)", s.key, s.network)
		f.Subnets[s.key] = domain.Subnet{ID: id, Name: s.key, Network: s.network}
	}
	insert("INSERT INTO subnet_domains (subnet_id, domain_id) VALUES (?, ?)",
		f.Subnets["one"].ID, f.Domains["mydomain"].ID)
	one := f.Subnets["one"]
	one.DomainIDs = []int64{f.Domains["mydomain"].ID}
	f.Subnets["one"] = one

	mydomainID := f.Domains["mydomain"].ID
	id := insert("INSERT INTO hostgroups (name, domain_id) VALUES (?, ?)", "common", mydomainID)
	f.Hostgroups["common"] = domain.Hostgroup{ID: id, Name: "common", DomainID: &mydomainID}
	id = insert("INSERT INTO hostgroups (name) VALUES (?)", "db")
	f.Hostgroups["db"] = domain.Hostgroup{ID: id, Name: "db"}

	if _, err := db.Exec(`
		UPDATE domains SET
			hostgroups_count = (SELECT COUNT(*) FROM hostgroups g WHERE g.domain_id = domains.id),
			total_hosts = (SELECT COUNT(*) FROM nics n WHERE n.domain_id = domains.id AND n.is_primary = 1)`); err != nil {
		t.Fatalf("Failed to reset fixture counters: %v", err)
	}

	for key, d := range f.Domains {
		if err := db.QueryRow("SELECT total_hosts, hostgroups_count FROM domains WHERE id = ?", d.ID).
			Scan(&d.TotalHosts, &d.HostgroupsCount); err != nil {
			t.Fatalf("Failed to reload fixture domain %s: %v", key, err)
		}
		f.Domains[key] = d
	}

	return f
}
