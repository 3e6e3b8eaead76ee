package integration

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/plexushq/plexus-registry-server/pkg/discovery"
	"github.com/plexushq/plexus-registry-server/pkg/registry"
	"github.com/plexushq/plexus-registry-server/test-integration/registry-api/helpers"
)

var _ = Describe("Service Registration", Label("services"), func() {
	It("registers a service and serves discovery from the cache", func() {
		var outcome registry.RegistrationOutcome
		status, err := client.DoJSON(http.MethodPost, "/services", map[string]any{
			"service_name": "payments-core",
			"service_type": "worker",
			"realm":        "finance",
			"address":      "10.12.0.4",
			"port":         9000,
		}, &outcome)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))
		Expect(outcome.Status).To(Equal(registry.OutcomeRegistered))
		Expect(outcome.Degraded).To(BeFalse())
		Expect(outcome.ExternalID).NotTo(BeEmpty())

		Expect(backend.Registered("payments-core")).To(BeTrue())

		var found registry.Discovery
		status, err = client.DoJSON(http.MethodGet, "/services/payments-core", nil, &found)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(found.Source).To(Equal(registry.DiscoverySourceCache))
		Expect(found.Registration.Address).To(Equal("10.12.0.4"))

		Expect(published.Find("service", "registered")).NotTo(BeEmpty())
	})

	It("degrades to cache-only registration while the backend is down", func() {
		backend.SetFailing(true)
		DeferCleanup(func() { backend.SetFailing(false) })

		var outcome registry.RegistrationOutcome
		status, err := client.DoJSON(http.MethodPost, "/services", map[string]any{
			"service_name": "ledger-sync",
		}, &outcome)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))
		Expect(outcome.Status).To(Equal(registry.OutcomeRegistered))
		Expect(outcome.Degraded).To(BeTrue())
		Expect(outcome.ExternalID).To(BeEmpty())

		// Cache serves discovery regardless of backend health.
		var found registry.Discovery
		status, err = client.DoJSON(http.MethodGet, "/services/ledger-sync", nil, &found)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(found.Source).To(Equal(registry.DiscoverySourceCache))
	})

	It("falls back to the backend on a cache miss and writes the hit back", func() {
		backend.Seed("warehouse-api", discovery.InstanceMetadata{
			ServiceID: "ext-warehouse-1",
			Name:      "warehouse-api",
			Address:   "10.40.0.2",
			Port:      8080,
			Realm:     "logistics",
		})

		var found registry.Discovery
		status, err := client.DoJSON(http.MethodGet, "/services/warehouse-api", nil, &found)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(found.Source).To(Equal(registry.DiscoverySourceBackend))
		Expect(found.Registration.Address).To(Equal("10.40.0.2"))
		Expect(found.Registration.ExternalID).To(Equal("ext-warehouse-1"))

		// The backend hit is now cached.
		status, err = client.DoJSON(http.MethodGet, "/services/warehouse-api", nil, &found)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(found.Source).To(Equal(registry.DiscoverySourceCache))
	})

	It("drains and unregisters on graceful shutdown", func() {
		status, err := client.DoJSON(http.MethodPost, "/services", map[string]any{
			"service_name": "report-builder",
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))

		var outcome registry.UnregisterOutcome
		status, err = client.DoJSON(http.MethodPost, "/services/report-builder/shutdown", map[string]any{
			"drain_seconds": 0.05,
		}, &outcome)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusOK))
		Expect(outcome.ServiceName).To(Equal("report-builder"))
		Expect(outcome.ExternalDeregistered).To(BeTrue())

		Expect(backend.Registered("report-builder")).To(BeFalse())

		resp, err := client.Do(http.MethodGet, "/services/report-builder", nil)
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("records the caller's tenant on lifecycle events", func() {
		tenantClient := client.WithIdentity(helpers.Identity{
			UserID:   "auditor",
			TenantID: "acme",
			Scopes:   []string{"registry:write"},
		})

		status, err := tenantClient.DoJSON(http.MethodPost, "/services", map[string]any{
			"service_name": "audit-trail",
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusCreated))

		events := published.Find("service", "registered")
		Expect(events).NotTo(BeEmpty())

		var tenants []string
		for _, event := range events {
			if event.Subject == "audit-trail" {
				tenants = append(tenants, event.Tenant)
			}
		}
		Expect(tenants).To(ContainElement("acme"))
	})
})
