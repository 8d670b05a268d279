package api

import (
	"net/http"

	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// DomainRequest is the body of POST and PATCH /api/v0/domains. Omitted
// fields keep their current value on PATCH.
type DomainRequest struct {
	Name     *string `json:"name"`
	Fullname *string `json:"fullname"`
}

func (req DomainRequest) apply(d *domain.Domain) {
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Fullname != nil {
		d.Fullname = *req.Fullname
	}
}

// LocationsResponse describes the locations of a domain
type LocationsResponse struct {
	SelectedLocationIDs       []int64 `json:"selected_location_ids"`
	UsedLocationIDs           []int64 `json:"used_location_ids"`
	UsedOrSelectedLocationIDs []int64 `json:"used_or_selected_location_ids"`
}

// AssignLocationsRequest is the body of PUT /api/v0/domains/{id}/locations
type AssignLocationsRequest struct {
	LocationIDs []int64 `json:"location_ids"`
}

// AssignSubnetsRequest is the body of PUT /api/v0/domains/{id}/subnets
type AssignSubnetsRequest struct {
	SubnetIDs []int64 `json:"subnet_ids"`
}

// NameserversResponse lists the NS host names of a domain
type NameserversResponse struct {
	Nameservers []string `json:"nameservers"`
}

func (a *API) listDomainsHandler(w http.ResponseWriter, r *http.Request) {
	domains, err := a.domainRepo.FindAll(r.Context())
	if err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	a.writeJSON(w, http.StatusOK, domains)
}

// createDomainHandler handles POST /api/v0/domains.
//
// The name is normalized before validation. Returns 201 with the saved
// domain or 422 with every failed rule.
func (a *API) createDomainHandler(w http.ResponseWriter, r *http.Request) {
	var req DomainRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	var d domain.Domain
	req.apply(&d)
	saved, err := a.domainRepo.Save(r.Context(), d)
	if err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	a.writeJSON(w, http.StatusCreated, saved)
}

func (a *API) getDomainHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "domain")
	if !ok {
		return
	}

	d, err := a.domainRepo.FindByID(r.Context(), id)
	if err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	a.writeJSON(w, http.StatusOK, d)
}

func (a *API) updateDomainHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "domain")
	if !ok {
		return
	}

	var req DomainRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	d, err := a.domainRepo.FindByID(r.Context(), id)
	if err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	req.apply(&d)

	saved, err := a.domainRepo.Save(r.Context(), d)
	if err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	a.writeJSON(w, http.StatusOK, saved)
}

// deleteDomainHandler handles DELETE /api/v0/domains/{id}.
//
// Returns 204 on success and 409 with one "is used by" message per host or
// subnet still using the domain.
func (a *API) deleteDomainHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "domain")
	if !ok {
		return
	}

	if err := a.domainRepo.DeleteByID(r.Context(), id); err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) domainNameserversHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "domain")
	if !ok {
		return
	}

	d, err := a.domainRepo.FindByID(r.Context(), id)
	if err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}

	names, err := a.resolver.Nameservers(r.Context(), d)
	if err != nil {
		a.logger.Warn("nameserver lookup failed", "domain", d.Name, "error", err)
		a.writeError(w, http.StatusBadGateway, "Nameserver lookup failed")
		return
	}
	a.writeJSON(w, http.StatusOK, NameserversResponse{Nameservers: names})
}

func (a *API) domainLocationsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "domain")
	if !ok {
		return
	}
	a.writeDomainLocations(w, r, id)
}

func (a *API) assignDomainLocationsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "domain")
	if !ok {
		return
	}

	var req AssignLocationsRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	if err := a.domainRepo.AssignLocations(r.Context(), id, req.LocationIDs); err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	a.writeDomainLocations(w, r, id)
}

func (a *API) writeDomainLocations(w http.ResponseWriter, r *http.Request, id int64) {
	var resp LocationsResponse
	var err error
	if resp.SelectedLocationIDs, err = a.domainRepo.SelectedLocationIDs(r.Context(), id); err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	if resp.UsedLocationIDs, err = a.domainRepo.UsedLocationIDs(r.Context(), id); err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	if resp.UsedOrSelectedLocationIDs, err = a.domainRepo.UsedOrSelectedLocationIDs(r.Context(), id); err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) assignDomainSubnetsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "domain")
	if !ok {
		return
	}

	var req AssignSubnetsRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	if err := a.domainRepo.AssignSubnets(r.Context(), id, req.SubnetIDs); err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}

	ids, err := a.domainRepo.SubnetIDs(r.Context(), id)
	if err != nil {
		a.writeRepoError(w, r, "domain", err)
		return
	}
	a.writeJSON(w, http.StatusOK, AssignSubnetsRequest{SubnetIDs: ids})
}
