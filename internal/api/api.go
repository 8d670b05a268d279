package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbweber/homelab/hostdb/internal/domain"
	"github.com/jbweber/homelab/hostdb/internal/logging"
	"github.com/jbweber/homelab/hostdb/internal/metrics"
	"github.com/jbweber/homelab/hostdb/internal/repository"
)

// NameserverResolver looks up the NS records of a domain
type NameserverResolver interface {
	Nameservers(ctx context.Context, d domain.Domain) ([]string, error)
}

// API holds repository dependencies for clean data access
type API struct {
	domainRepo    repository.DomainRepository
	hostRepo      repository.HostRepository
	interfaceRepo repository.InterfaceRepository
	hostgroupRepo repository.HostgroupRepository
	subnetRepo    repository.SubnetRepository
	locationRepo  repository.LocationRepository
	resolver      NameserverResolver
	metrics       *metrics.Metrics
	logger        *logging.Logger
}

// NewAPI creates a new API instance with repositories over db. counters
// must be prepared on the same db.
func NewAPI(db *sql.DB, counters *repository.Counters, resolver NameserverResolver, m *metrics.Metrics, logger *logging.Logger) *API {
	return &API{
		domainRepo:    repository.NewDomainRepository(db, counters),
		hostRepo:      repository.NewHostRepository(db, counters),
		interfaceRepo: repository.NewInterfaceRepository(db, counters),
		hostgroupRepo: repository.NewHostgroupRepository(db, counters),
		subnetRepo:    repository.NewSubnetRepository(db),
		locationRepo:  repository.NewLocationRepository(db),
		resolver:      resolver,
		metrics:       m,
		logger:        logger,
	}
}

// RegisterRoutes registers all API endpoints to the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/", a.healthHandler)

	r.Route("/api/v0/domains", func(r chi.Router) {
		r.Get("/", a.listDomainsHandler)
		r.Post("/", a.createDomainHandler)
		r.Get("/{id}", a.getDomainHandler)
		r.Patch("/{id}", a.updateDomainHandler)
		r.Delete("/{id}", a.deleteDomainHandler)
		r.Get("/{id}/nameservers", a.domainNameserversHandler)
		r.Get("/{id}/locations", a.domainLocationsHandler)
		r.Put("/{id}/locations", a.assignDomainLocationsHandler)
		r.Put("/{id}/subnets", a.assignDomainSubnetsHandler)
	})

	r.Route("/api/v0/hosts", func(r chi.Router) {
		r.Post("/", a.createHostHandler)
		r.Get("/{id}", a.getHostHandler)
		r.Patch("/{id}", a.updateHostHandler)
		r.Delete("/{id}", a.deleteHostHandler)
		r.Post("/{id}/interfaces", a.createInterfaceHandler)
	})

	r.Route("/api/v0/interfaces", func(r chi.Router) {
		r.Patch("/{id}", a.updateInterfaceHandler)
		r.Delete("/{id}", a.deleteInterfaceHandler)
	})

	r.Route("/api/v0/hostgroups", func(r chi.Router) {
		r.Post("/", a.createHostgroupHandler)
		r.Patch("/{id}", a.updateHostgroupHandler)
		r.Delete("/{id}", a.deleteHostgroupHandler)
	})

	r.Post("/api/v0/subnets", a.createSubnetHandler)
	r.Post("/api/v0/locations", a.createLocationHandler)
}

func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		a.logger.Error("failed to write health response", "error", err)
	}
}
