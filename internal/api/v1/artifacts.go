package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/plexushq/plexus-registry-server/internal/api/common"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

// createArtifact handles POST /api/v1/artifacts
func (routes *Routes) createArtifact(w http.ResponseWriter, r *http.Request) {
	var req CreateArtifactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := routes.registry.CreateArtifact(
		r.Context(), common.UserFromContext(r.Context()), req.ArtifactType, req.Data, req.ClientID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, created, http.StatusCreated)
}

// listArtifacts handles GET /api/v1/artifacts
func (routes *Routes) listArtifacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := registry.ArtifactFilter{
		ArtifactType: query.Get("type"),
		ClientID:     query.Get("client_id"),
		Status:       registry.ArtifactStatus(query.Get("status")),
	}

	artifacts, err := routes.registry.ListArtifacts(r.Context(), common.UserFromContext(r.Context()), filter)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, ListArtifactsResponse{
		Artifacts: artifacts,
		Count:     len(artifacts),
	}, http.StatusOK)
}

// getArtifact handles GET /api/v1/artifacts/{id}
func (routes *Routes) getArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	artifact, err := routes.registry.GetArtifact(r.Context(), common.UserFromContext(r.Context()), id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, artifact, http.StatusOK)
}

// getArtifactVersion handles GET /api/v1/artifacts/{id}/versions/{version}
func (routes *Routes) getArtifactVersion(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	versionParam, err := common.GetAndValidateURLParam(r, "version")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	version, err := strconv.Atoi(versionParam)
	if err != nil {
		common.WriteErrorResponse(w, "version must be an integer", http.StatusBadRequest)
		return
	}

	artifact, err := routes.registry.GetArtifactVersion(r.Context(), common.UserFromContext(r.Context()), id, version)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, artifact, http.StatusOK)
}

// updateArtifactStatus handles PUT /api/v1/artifacts/{id}/status
func (routes *Routes) updateArtifactStatus(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req UpdateArtifactStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Status == "" {
		common.WriteErrorResponse(w, "status is required", http.StatusBadRequest)
		return
	}

	updated, err := routes.registry.UpdateArtifactStatus(
		r.Context(), common.UserFromContext(r.Context()), id, registry.ArtifactStatus(req.Status))
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, updated, http.StatusOK)
}

// promoteArtifact handles POST /api/v1/artifacts/{id}/promote
func (routes *Routes) promoteArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req PromoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := routes.registry.PromoteArtifactToSolution(
		r.Context(), common.UserFromContext(r.Context()), id, req.ClientID, routes.solutions)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	common.WriteJSONResponse(w, outcome, http.StatusOK)
}
