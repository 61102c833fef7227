package integration

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/gbfs-client/pkg/gbfs"
	"github.com/stacklok/gbfs-client/pkg/httpclient"
	"github.com/stacklok/gbfs-client/pkg/systems"
	"github.com/stacklok/gbfs-client/test-integration/gbfs/helpers"
)

var _ = Describe("Registry to feed resolver hand-off", Label("interop"), func() {
	var (
		network  *helpers.FakeNetwork
		client   httpclient.Client
		registry *systems.Registry
	)

	BeforeEach(func() {
		network = helpers.NewFakeNetwork(helpers.DefaultOperators()...)
		client = httpclient.NewDefaultClient(5 * time.Second)

		var err error
		registry, err = systems.Initialize(ctx,
			systems.WithSourceURL(network.RegistryURL()),
			systems.WithHTTPClient(client),
			systems.WithLogger(GinkgoLogr),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		network.Close()
	})

	resolverFor := func(systemID string, opts ...gbfs.Option) *gbfs.Resolver {
		operator, ok := registry.FindBySystemID(systemID)
		Expect(ok).To(BeTrue(), "system %s should be in the registry", systemID)

		opts = append([]gbfs.Option{gbfs.WithHTTPClient(client), gbfs.WithLogger(GinkgoLogr)}, opts...)
		resolver, err := gbfs.Create(ctx, operator.AutoDiscoveryURL, opts...)
		Expect(err).NotTo(HaveOccurred())
		return resolver
	}

	It("loads every operator of the registry", func() {
		Expect(registry.Len()).To(Equal(3))
		Expect(registry.Source()).To(Equal(network.RegistryURL()))
		Expect(registry.FindByCountryCode("CA")).To(HaveLen(2))
	})

	It("reads the stations of an operator found by accent-insensitive location", func() {
		found := registry.FindByLocation("MONTREAL")
		Expect(found).To(HaveLen(1))
		Expect(found[0].AutoDiscoveryURL).To(Equal(network.DiscoveryURL("Bixi_MTL")))

		resolver := resolverFor(found[0].SystemID)
		Expect(resolver.SupportedLanguages()).To(Equal([]string{"en", "fr"}))

		stations, err := resolver.ListStationInformation(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stations).To(HaveLen(2))
		Expect(stations[0].Name).To(Equal("Métro Mont-Royal"))

		status, err := resolver.GetStationStatus(ctx, "2")
		Expect(err).NotTo(HaveOccurred())
		Expect(status.NumDocksAvailable).To(Equal(19))
		Expect(bool(status.IsRenting)).To(BeFalse())
		Expect(bool(status.IsInstalled)).To(BeTrue())
	})

	DescribeTable("resolving system information per language",
		func(systemID, language, expectedLanguage string) {
			resolver := resolverFor(systemID, gbfs.WithPreferredLanguage(language))

			info, err := resolver.SystemInformation(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.SystemID).To(Equal(systemID))
			Expect(info.Language).To(Equal(expectedLanguage))
		},
		Entry("first language when none is preferred", "Bixi_MTL", "", "en"),
		Entry("preferred French", "Bixi_MTL", "fr", "fr"),
		Entry("single language system", "bike_share_toronto", "en", "en"),
		Entry("French only system", "Paris", "", "fr"),
	)

	It("reports the discovered languages when the preferred one is missing", func() {
		resolver := resolverFor("bike_share_toronto", gbfs.WithPreferredLanguage("fr"))

		_, err := resolver.ListStationInformation(ctx)
		var langErr *gbfs.UnsupportedLanguageError
		Expect(errors.As(err, &langErr)).To(BeTrue())
		Expect(langErr.Available).To(Equal([]string{"en"}))
		Expect(err).To(MatchError(ContainSubstring("available languages: en")))

		resolver.SetPreferredLanguage("en")
		stations, err := resolver.ListStationInformation(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stations).To(HaveLen(1))
	})

	It("rejects a feed that is not a GBFS document", func() {
		resolver := resolverFor("Paris")

		_, err := resolver.ListStationStatus(ctx)
		var invalid *gbfs.InvalidResponseError
		Expect(errors.As(err, &invalid)).To(BeTrue())
		Expect(invalid.Feed).To(Equal(gbfs.FeedStationStatus))

		stations, err := resolver.ListStationInformation(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(stations).To(HaveLen(1))
	})

	It("serves repeated fetches from the feed cache", func() {
		resolver := resolverFor("Bixi_MTL", gbfs.WithFeedCache(time.Minute))

		for range 3 {
			_, err := resolver.GetStationInformation(ctx, "1")
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(network.Requests("/Bixi_MTL/en/station_information.json")).To(Equal(1))
		Expect(network.Requests("/Bixi_MTL/gbfs.json")).To(Equal(1))
	})

	It("fetches again without a cache", func() {
		resolver := resolverFor("Bixi_MTL")

		for range 2 {
			_, err := resolver.ListStationStatus(ctx)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(network.Requests("/Bixi_MTL/en/station_status.json")).To(Equal(2))
	})

	It("selects operators by GBFS version before resolving", func() {
		selected, err := registry.Select(systems.Criteria{MinVersion: "2.3"})
		Expect(err).NotTo(HaveOccurred())
		Expect(selected).To(HaveLen(1))
		Expect(selected[0].LatestVersion()).To(Equal("2.3"))

		resolver := resolverFor(selected[0].SystemID)
		Expect(resolver.Document().Version).To(Equal("2.3"))
	})
})
