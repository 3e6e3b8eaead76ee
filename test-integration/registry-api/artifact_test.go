package integration

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

var _ = Describe("Artifact Workflow", Label("artifacts"), func() {
	createArtifact := func(artifactType, clientID string) registry.ArtifactRecord {
		var created registry.ArtifactRecord
		status, err := client.DoJSON(http.MethodPost, "/artifacts", map[string]any{
			"artifact_type": artifactType,
			"client_id":     clientID,
			"data": map[string]any{
				"intent": "automate invoice approval",
			},
		}, &created)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))
		Expect(created.ArtifactID).NotTo(BeEmpty())
		return created
	}

	moveStatus := func(id string, to registry.ArtifactStatus) registry.ArtifactRecord {
		var updated registry.ArtifactRecord
		status, err := client.DoJSON(http.MethodPut, "/artifacts/"+id+"/status", map[string]any{
			"status": string(to),
		}, &updated)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(updated.Status).To(Equal(to))
		return updated
	}

	It("walks an artifact from draft to an active solution", func() {
		created := createArtifact("workflow", "portal-client")
		Expect(created.Status).To(Equal(registry.ArtifactStatusDraft))
		Expect(created.Version).To(Equal(1))

		moveStatus(created.ArtifactID, registry.ArtifactStatusReview)
		approved := moveStatus(created.ArtifactID, registry.ArtifactStatusApproved)
		Expect(approved.Version).To(Equal(3))

		var promotion registry.PromotionOutcome
		status, err := client.DoJSON(http.MethodPost, "/artifacts/"+created.ArtifactID+"/promote", map[string]any{
			"client_id": "portal-client",
		}, &promotion)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(promotion.SolutionID).To(Equal("solution-" + created.ArtifactID))
		Expect(promotion.StatusUpdated).To(BeTrue())
		Expect(promotion.Artifact.Status).To(Equal(registry.ArtifactStatusImplemented))

		activated := moveStatus(created.ArtifactID, registry.ArtifactStatusActive)
		Expect(activated.SolutionID).To(Equal("solution-" + created.ArtifactID))

		// Every step left an immutable snapshot behind.
		var snapshot registry.ArtifactRecord
		status, err = client.DoJSON(http.MethodGet, "/artifacts/"+created.ArtifactID+"/versions/1", nil, &snapshot)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(snapshot.Status).To(Equal(registry.ArtifactStatusDraft))

		Expect(published.Find("artifact", "promoted")).NotTo(BeEmpty())
	})

	It("rejects transitions the workflow table does not allow", func() {
		created := createArtifact("intent", "portal-client")

		resp, err := client.Do(http.MethodPut, "/artifacts/"+created.ArtifactID+"/status", map[string]any{
			"status": string(registry.ArtifactStatusActive),
		})
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})

	It("refuses promotion by a different client", func() {
		created := createArtifact("workflow", "owner-client")
		moveStatus(created.ArtifactID, registry.ArtifactStatusReview)
		moveStatus(created.ArtifactID, registry.ArtifactStatusApproved)

		resp, err := client.Do(http.MethodPost, "/artifacts/"+created.ArtifactID+"/promote", map[string]any{
			"client_id": "other-client",
		})
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})

	It("filters artifact listings by type, client and status", func() {
		createArtifact("blueprint", "filter-client")
		created := createArtifact("blueprint", "filter-client")
		moveStatus(created.ArtifactID, registry.ArtifactStatusReview)

		var list struct {
			Artifacts []*registry.ArtifactRecord `json:"artifacts"`
			Count     int                        `json:"count"`
		}
		status, err := client.DoJSON(http.MethodGet, "/artifacts?type=blueprint&client_id=filter-client&status=review", nil, &list)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(list.Count).To(Equal(1))
		Expect(list.Artifacts[0].ArtifactID).To(Equal(created.ArtifactID))
	})
})
