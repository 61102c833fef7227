package app

import (
	"context"

	"github.com/spf13/cobra"
)

type languageRow struct {
	Code      string `json:"code" yaml:"code"`
	Preferred bool   `json:"preferred" yaml:"preferred"`
	Feeds     int    `json:"feeds" yaml:"feeds"`
}

func (c *cli) newLanguagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the languages a system publishes feeds in",
		Example: `  gbfs languages --system Bixi_MTL
  gbfs languages --url https://gbfs.velobixi.com/gbfs/gbfs.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				resolver, err := rt.newResolver(ctx, cmd)
				if err != nil {
					return err
				}

				effective := resolver.PreferredLanguage()
				langs := resolver.Document().Languages
				if effective == "" && len(langs) > 0 {
					effective = langs[0].Code
				}
				rows := make([]languageRow, 0, len(langs))
				for _, lang := range langs {
					rows = append(rows, languageRow{
						Code:      lang.Code,
						Preferred: lang.Code == effective,
						Feeds:     len(lang.Feeds),
					})
				}

				return render(cmd.OutOrStdout(), rt.format, rows, []string{"LANGUAGE", "PREFERRED", "FEEDS"},
					func() [][]string {
						table := make([][]string, 0, len(rows))
						for _, r := range rows {
							table = append(table, []string{r.Code, yesNo(r.Preferred), itoa(r.Feeds)})
						}
						return table
					})
			})
		},
	}
	addFeedSourceFlags(cmd)
	return cmd
}

func (c *cli) newFeedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "List the feeds a system advertises in the preferred language",
		Example: `  gbfs feeds --system Bixi_MTL --language fr
  gbfs feeds --url https://gbfs.velobixi.com/gbfs/gbfs.json --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				resolver, err := rt.newResolver(ctx, cmd)
				if err != nil {
					return err
				}
				feeds, err := resolver.Feeds()
				if err != nil {
					return err
				}

				return render(cmd.OutOrStdout(), rt.format, feeds, []string{"NAME", "URL"}, func() [][]string {
					rows := make([][]string, 0, len(feeds))
					for _, f := range feeds {
						rows = append(rows, []string{f.Name, f.URL})
					}
					return rows
				})
			})
		},
	}
	addFeedSourceFlags(cmd)
	return cmd
}

func (c *cli) newSystemInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system-info",
		Short: "Show a system's system_information feed",
		Example: `  gbfs system-info --system bike_share_toronto
  gbfs system-info --url https://gbfs.velobixi.com/gbfs/gbfs.json --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				resolver, err := rt.newResolver(ctx, cmd)
				if err != nil {
					return err
				}
				info, err := resolver.SystemInformation(ctx)
				if err != nil {
					return err
				}

				return render(cmd.OutOrStdout(), rt.format, info, []string{"FIELD", "VALUE"}, func() [][]string {
					rows := [][]string{
						{"System ID", info.SystemID},
						{"Name", info.Name},
						{"Operator", info.Operator},
						{"Language", info.Language},
						{"Timezone", info.Timezone},
						{"URL", info.URL},
						{"Phone", string(info.PhoneNumber)},
						{"Email", info.Email},
						{"Start date", info.StartDate},
						{"License", info.LicenseURL},
					}
					filled := rows[:0]
					for _, r := range rows {
						if r[1] != "" {
							filled = append(filled, r)
						}
					}
					return filled
				})
			})
		},
	}
	addFeedSourceFlags(cmd)
	return cmd
}
