package api

import (
	"net/http"

	"github.com/jbweber/homelab/hostdb/internal/domain"
)

// HostResponse is a host with its interfaces
type HostResponse struct {
	domain.Host
	Interfaces []domain.Interface `json:"interfaces"`
}

// createHostHandler handles POST /api/v0/hosts.
//
// Request: JSON host with "name" and optional "ip", "domain_id",
// "location_id", "hostgroup_id". A primary interface carrying ip and
// domain_id is created with the host.
func (a *API) createHostHandler(w http.ResponseWriter, r *http.Request) {
	var host domain.Host
	if !a.decodeJSON(w, r, &host) {
		return
	}
	host.ID = 0

	saved, err := a.hostRepo.Save(r.Context(), host)
	if err != nil {
		a.writeRepoError(w, r, "host", err)
		return
	}
	a.writeHost(w, r, saved, http.StatusCreated)
}

func (a *API) getHostHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "host")
	if !ok {
		return
	}

	host, err := a.hostRepo.FindByID(r.Context(), id)
	if err != nil {
		a.writeRepoError(w, r, "host", err)
		return
	}
	a.writeHost(w, r, host, http.StatusOK)
}

// updateHostHandler handles PATCH /api/v0/hosts/{id}. Fields present in
// the body replace the stored ones; null clears an optional reference.
func (a *API) updateHostHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "host")
	if !ok {
		return
	}

	host, err := a.hostRepo.FindByID(r.Context(), id)
	if err != nil {
		a.writeRepoError(w, r, "host", err)
		return
	}
	if !a.decodeJSON(w, r, &host) {
		return
	}
	host.ID = id

	saved, err := a.hostRepo.Save(r.Context(), host)
	if err != nil {
		a.writeRepoError(w, r, "host", err)
		return
	}
	a.writeHost(w, r, saved, http.StatusOK)
}

func (a *API) deleteHostHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "host")
	if !ok {
		return
	}

	if err := a.hostRepo.DeleteByID(r.Context(), id); err != nil {
		a.writeRepoError(w, r, "host", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) writeHost(w http.ResponseWriter, r *http.Request, host domain.Host, status int) {
	nics, err := a.interfaceRepo.FindByHostID(r.Context(), host.ID)
	if err != nil {
		a.writeRepoError(w, r, "host", err)
		return
	}
	a.writeJSON(w, status, HostResponse{Host: host, Interfaces: nics})
}

// createInterfaceHandler handles POST /api/v0/hosts/{id}/interfaces
func (a *API) createInterfaceHandler(w http.ResponseWriter, r *http.Request) {
	hostID, ok := a.idParam(w, r, "host")
	if !ok {
		return
	}

	var nic domain.Interface
	if !a.decodeJSON(w, r, &nic) {
		return
	}
	nic.ID = 0
	nic.HostID = hostID

	saved, err := a.interfaceRepo.Save(r.Context(), nic)
	if err != nil {
		a.writeRepoError(w, r, "interface", err)
		return
	}
	a.writeJSON(w, http.StatusCreated, saved)
}

// updateInterfaceHandler handles PATCH /api/v0/interfaces/{id}. Changing
// the domain or primary flag moves the host between domain totals.
func (a *API) updateInterfaceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "interface")
	if !ok {
		return
	}

	nic, err := a.interfaceRepo.FindByID(r.Context(), id)
	if err != nil {
		a.writeRepoError(w, r, "interface", err)
		return
	}
	if !a.decodeJSON(w, r, &nic) {
		return
	}
	nic.ID = id

	saved, err := a.interfaceRepo.Save(r.Context(), nic)
	if err != nil {
		a.writeRepoError(w, r, "interface", err)
		return
	}
	a.writeJSON(w, http.StatusOK, saved)
}

func (a *API) deleteInterfaceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "interface")
	if !ok {
		return
	}

	if err := a.interfaceRepo.DeleteByID(r.Context(), id); err != nil {
		a.writeRepoError(w, r, "interface", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
