package integration

import (
	"bytes"
	"encoding/json"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/gbfs-client/cmd/gbfs/app"
	"github.com/stacklok/gbfs-client/pkg/gbfs"
	"github.com/stacklok/gbfs-client/test-integration/gbfs/helpers"
)

var _ = Describe("gbfs command", Label("cli"), func() {
	var network *helpers.FakeNetwork

	BeforeEach(func() {
		network = helpers.NewFakeNetwork(helpers.DefaultOperators()...)
	})

	AfterEach(func() {
		network.Close()
	})

	run := func(args ...string) (string, error) {
		cmd := app.NewRootCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append(args, "--registry-url", network.RegistryURL()))
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("lists the feeds of a system looked up in the registry", func() {
		out, err := run("feeds", "--system", "bixi_mtl", "--language", "fr", "--format", "json")
		Expect(err).NotTo(HaveOccurred())

		var feeds []gbfs.Feed
		Expect(json.Unmarshal([]byte(out), &feeds)).To(Succeed())
		Expect(feeds).To(HaveLen(3))
		Expect(feeds[0].URL).To(HaveSuffix("/Bixi_MTL/fr/system_information.json"))
	})

	It("prints station availability as a table", func() {
		out, err := run("stations", "--system", "bike_share_toronto")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("7000"))
		Expect(out).To(ContainSubstring("12"))
	})

	It("fails when a station feed is broken", func() {
		_, err := run("stations", "--system", "Paris")
		Expect(err).To(MatchError(ContainSubstring("payload is not a GBFS document")))
	})

	It("searches systems ignoring accents", func() {
		out, err := run("systems", "--name", "velib", "--format", "yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("system_id: Paris"))
	})
})
