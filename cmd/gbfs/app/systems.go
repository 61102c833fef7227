package app

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacklok/gbfs-client/pkg/systems"
)

const (
	flagLocation       = "location"
	flagName           = "name"
	flagCountry        = "country"
	flagID             = "id"
	flagInclude        = "include"
	flagExclude        = "exclude"
	flagVersion        = "gbfs-version"
	flagExcludeVersion = "exclude-gbfs-version"
	flagMinVersion     = "min-gbfs-version"
)

var systemsHeader = []string{"SYSTEM ID", "NAME", "LOCATION", "COUNTRY", "GBFS VERSIONS", "AUTO-DISCOVERY URL"}

func (c *cli) newSystemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "systems",
		Short: "Search the systems registry",
		Long: `Search the MobilityData systems.csv registry of bikeshare operators.

Location and name searches ignore case and accents, so "montreal" matches
"Montréal". Without a search flag every system is listed. The include and
exclude flags take glob patterns over system IDs.`,
		Example: `  gbfs systems --location montreal
  gbfs systems --country CA --min-gbfs-version 2.3
  gbfs systems --include 'lime_*' --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				return runSystems(ctx, cmd, rt)
			})
		},
	}

	cmd.Flags().String(flagLocation, "", "Systems whose location contains this text")
	cmd.Flags().String(flagName, "", "Systems whose name contains this text")
	cmd.Flags().String(flagCountry, "", "Systems of this ISO 3166 country code")
	cmd.Flags().String(flagID, "", "The system with this ID")
	cmd.Flags().StringSlice(flagInclude, nil, "Only system IDs matching these glob patterns")
	cmd.Flags().StringSlice(flagExclude, nil, "Skip system IDs matching these glob patterns")
	cmd.Flags().StringSlice(flagVersion, nil, "Only systems publishing one of these GBFS versions")
	cmd.Flags().StringSlice(flagExcludeVersion, nil, "Skip systems publishing one of these GBFS versions")
	cmd.Flags().String(flagMinVersion, "", "Only systems publishing this GBFS version or newer")
	cmd.MarkFlagsMutuallyExclusive(flagLocation, flagName, flagCountry, flagID)

	return cmd
}

func runSystems(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
	registry, err := rt.loadRegistry(ctx)
	if err != nil {
		return err
	}

	found, err := searchRegistry(cmd, registry)
	if err != nil {
		return err
	}

	criteria, err := systemsCriteria(cmd, rt)
	if err != nil {
		return err
	}
	if !isEmptyCriteria(criteria) {
		selected, err := registry.Select(criteria)
		if err != nil {
			return fmt.Errorf("invalid filter: %w", err)
		}
		found = intersect(found, selected)
	}

	return render(cmd.OutOrStdout(), rt.format, found, systemsHeader, func() [][]string {
		rows := make([][]string, 0, len(found))
		for _, op := range found {
			rows = append(rows, []string{
				op.SystemID,
				op.Name,
				op.Location,
				op.CountryCode,
				strings.Join(op.SupportedVersions, ", "),
				op.AutoDiscoveryURL,
			})
		}
		return rows
	})
}

// searchRegistry runs the search selected by the lookup flags
func searchRegistry(cmd *cobra.Command, registry *systems.Registry) ([]systems.Operator, error) {
	flags := cmd.Flags()
	switch {
	case flags.Changed(flagID):
		id, _ := flags.GetString(flagID)
		op, ok := registry.FindBySystemID(id)
		if !ok {
			return nil, fmt.Errorf("system %q not found in registry %s", id, registry.Source())
		}
		return []systems.Operator{op}, nil
	case flags.Changed(flagLocation):
		location, _ := flags.GetString(flagLocation)
		return registry.FindByLocation(location), nil
	case flags.Changed(flagName):
		name, _ := flags.GetString(flagName)
		return registry.FindByName(name), nil
	case flags.Changed(flagCountry):
		country, _ := flags.GetString(flagCountry)
		return registry.FindByCountryCode(country), nil
	default:
		return registry.All(), nil
	}
}

// systemsCriteria merges the filter flags with the configured registry filter
func systemsCriteria(cmd *cobra.Command, rt *runtime) (systems.Criteria, error) {
	flags := cmd.Flags()
	include, err := flags.GetStringSlice(flagInclude)
	if err != nil {
		return systems.Criteria{}, err
	}
	exclude, err := flags.GetStringSlice(flagExclude)
	if err != nil {
		return systems.Criteria{}, err
	}
	includeVersions, err := flags.GetStringSlice(flagVersion)
	if err != nil {
		return systems.Criteria{}, err
	}
	excludeVersions, err := flags.GetStringSlice(flagExcludeVersion)
	if err != nil {
		return systems.Criteria{}, err
	}
	minVersion, err := flags.GetString(flagMinVersion)
	if err != nil {
		return systems.Criteria{}, err
	}

	reg := &rt.cfg.Registry
	return systems.Criteria{
		IncludeIDs:      slices.Concat(reg.GetIncludeIDs(), include),
		ExcludeIDs:      slices.Concat(reg.GetExcludeIDs(), exclude),
		IncludeVersions: slices.Concat(reg.GetIncludeVersions(), includeVersions),
		ExcludeVersions: slices.Concat(reg.GetExcludeVersions(), excludeVersions),
		MinVersion:      minVersion,
	}, nil
}

func isEmptyCriteria(c systems.Criteria) bool {
	return len(c.IncludeIDs) == 0 && len(c.ExcludeIDs) == 0 &&
		len(c.IncludeVersions) == 0 && len(c.ExcludeVersions) == 0 &&
		c.MinVersion == ""
}

// intersect keeps the operators of found that are also in selected, in found order
func intersect(found, selected []systems.Operator) []systems.Operator {
	keep := make(map[operatorKey]struct{}, len(selected))
	for _, op := range selected {
		keep[keyOf(op)] = struct{}{}
	}
	out := make([]systems.Operator, 0, len(found))
	for _, op := range found {
		if _, ok := keep[keyOf(op)]; ok {
			out = append(out, op)
		}
	}
	return out
}

type operatorKey struct {
	systemID, name, url string
}

func keyOf(op systems.Operator) operatorKey {
	return operatorKey{systemID: op.SystemID, name: op.Name, url: op.AutoDiscoveryURL}
}
