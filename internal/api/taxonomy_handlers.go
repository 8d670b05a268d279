package api

import (
	"net/http"

	"github.com/jbweber/homelab/hostdb/internal/domain"
)

func (a *API) createHostgroupHandler(w http.ResponseWriter, r *http.Request) {
	var hg domain.Hostgroup
	if !a.decodeJSON(w, r, &hg) {
		return
	}
	hg.ID = 0

	saved, err := a.hostgroupRepo.Save(r.Context(), hg)
	if err != nil {
		a.writeRepoError(w, r, "hostgroup", err)
		return
	}
	a.writeJSON(w, http.StatusCreated, saved)
}

// updateHostgroupHandler handles PATCH /api/v0/hostgroups/{id}. Moving
// the hostgroup to another domain moves it between hostgroups_count.
func (a *API) updateHostgroupHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "hostgroup")
	if !ok {
		return
	}

	hg, err := a.hostgroupRepo.FindByID(r.Context(), id)
	if err != nil {
		a.writeRepoError(w, r, "hostgroup", err)
		return
	}
	if !a.decodeJSON(w, r, &hg) {
		return
	}
	hg.ID = id

	saved, err := a.hostgroupRepo.Save(r.Context(), hg)
	if err != nil {
		a.writeRepoError(w, r, "hostgroup", err)
		return
	}
	a.writeJSON(w, http.StatusOK, saved)
}

func (a *API) deleteHostgroupHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.idParam(w, r, "hostgroup")
	if !ok {
		return
	}

	if err := a.hostgroupRepo.DeleteByID(r.Context(), id); err != nil {
		a.writeRepoError(w, r, "hostgroup", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) createSubnetHandler(w http.ResponseWriter, r *http.Request) {
	var s domain.Subnet
	if !a.decodeJSON(w, r, &s) {
		return
	}
	s.ID = 0

	saved, err := a.subnetRepo.Save(r.Context(), s)
	if err != nil {
		a.writeRepoError(w, r, "subnet", err)
		return
	}
	a.writeJSON(w, http.StatusCreated, saved)
}

func (a *API) createLocationHandler(w http.ResponseWriter, r *http.Request) {
	var loc domain.Location
	if !a.decodeJSON(w, r, &loc) {
		return
	}
	loc.ID = 0

	saved, err := a.locationRepo.Save(r.Context(), loc)
	if err != nil {
		a.writeRepoError(w, r, "location", err)
		return
	}
	a.writeJSON(w, http.StatusCreated, saved)
}
