package integration

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/plexushq/plexus-registry-server/pkg/registry"
)

type routesResponse struct {
	Routes []*registry.RouteDefinition `json:"routes"`
	Count  int                         `json:"count"`
}

type capabilitiesResponse struct {
	Capabilities []*registry.CapabilityDefinition `json:"capabilities"`
	Count        int                              `json:"count"`
}

var _ = Describe("Capabilities and Routes", Label("capabilities"), func() {
	It("derives discoverable routes from capability contracts", func() {
		status, err := client.DoJSON(http.MethodPost, "/capabilities", map[string]any{
			"service_name":    "inventory",
			"capability_name": "reserve_stock",
			"realm":           "logistics",
			"semantic_mapping": map[string]any{
				"pillar": "fulfillment",
			},
			"contracts": map[string]any{
				"rest_api": map[string]any{
					"endpoint": "/inventory/reservations",
					"method":   "POST",
					"handler":  "ReserveStock",
				},
				"soa_api": map[string]any{
					"api_name": "Inventory.Reserve",
					"endpoint": "/soa/inventory/reserve",
					"method":   "POST",
				},
			},
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))

		var routes routesResponse
		status, err = client.DoJSON(http.MethodGet, "/routes?service=inventory", nil, &routes)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(routes.Count).To(Equal(2))

		status, err = client.DoJSON(http.MethodGet, "/routes?pillar=fulfillment", nil, &routes)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(routes.Count).To(Equal(1))
		Expect(routes.Routes[0].ContractType).To(Equal(registry.ContractTypeREST))
		Expect(routes.Routes[0].Path).To(Equal("/inventory/reservations"))

		Expect(published.Find("capability", "registered")).NotTo(BeEmpty())
	})

	It("removes derived routes when a capability is unregistered", func() {
		status, err := client.DoJSON(http.MethodPost, "/capabilities", map[string]any{
			"service_name":    "shipping",
			"capability_name": "quote_rates",
			"contracts": map[string]any{
				"rest_api": map[string]any{
					"endpoint": "/shipping/quotes",
					"method":   "GET",
				},
			},
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))

		var summary registry.UnregisterSummary
		status, err = client.DoJSON(http.MethodDelete, "/capabilities/shipping/quote_rates", nil, &summary)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(summary.Unregistered).To(Equal(1))

		var routes routesResponse
		status, err = client.DoJSON(http.MethodGet, "/routes?service=shipping", nil, &routes)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(routes.Count).To(BeZero())
	})

	It("unregisters a service's capabilities alongside the service", func() {
		status, err := client.DoJSON(http.MethodPost, "/services", map[string]any{
			"service_name": "notifier",
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))

		for _, name := range []string{"send_email", "send_sms"} {
			status, err = client.DoJSON(http.MethodPost, "/capabilities", map[string]any{
				"service_name":    "notifier",
				"capability_name": name,
				"contracts": map[string]any{
					"rest_api": map[string]any{
						"endpoint": "/notify/" + name,
						"method":   "POST",
					},
				},
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusCreated))
		}

		var outcome registry.UnregisterOutcome
		status, err = client.DoJSON(http.MethodDelete, "/services/notifier", nil, &outcome)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(outcome.Capabilities.Unregistered).To(Equal(2))

		var capabilities capabilitiesResponse
		status, err = client.DoJSON(http.MethodGet, "/capabilities?service=notifier", nil, &capabilities)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(capabilities.Count).To(BeZero())

		var routes routesResponse
		status, err = client.DoJSON(http.MethodGet, "/routes?service=notifier", nil, &routes)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(routes.Count).To(BeZero())
	})
})
