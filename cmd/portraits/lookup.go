package main

import (
	"encoding/json"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"portraits/internal/domain/classify"
	"portraits/internal/domain/directory"
)

type lookupOptions struct {
	asJSON   bool
	graduate bool
}

func newLookupCmd(a *app) *cobra.Command {
	opts := &lookupOptions{}

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Query the university and organization directory",
		Long: `Query the local directory tables.

Subcommands:
  universities  - list universities, or resolve names to IDs
  organizations - list the organizations of universities
  search        - find organizations by a name fragment`,
	}
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")

	universitiesCmd := &cobra.Command{
		Use:   "universities [name...]",
		Short: "List universities or resolve names to IDs",
		Long: `Without arguments every university is listed. With names each one is
resolved by exact match; any unknown name fails the whole lookup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadDirectory(cmd.Context())
			if err != nil {
				return err
			}
			univs := slices.Collect(store.Universities())
			if len(args) > 0 {
				if univs, err = store.FindUniversityIDs(args); err != nil {
					return err
				}
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), univs)
			}
			for _, u := range univs {
				printf(cmd.OutOrStdout(), "%s\t%s\n", u.ID, u.Name)
			}
			return nil
		},
	}

	organizationsCmd := &cobra.Command{
		Use:   "organizations <university...>",
		Short: "List the organizations of universities",
		Long: `Lists every organization of each university with its level and field
classification. An unknown university lists nothing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadDirectory(cmd.Context())
			if err != nil {
				return err
			}
			classifier, err := a.classifier()
			if err != nil {
				return err
			}

			byUniv := store.FindOrganizationsByUniversity(args)
			if opts.graduate {
				for name, orgs := range byUniv {
					byUniv[name] = directory.GraduateOnly(orgs)
				}
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), byUniv)
			}
			for _, name := range args {
				printf(cmd.OutOrStdout(), "%s (%d)\n", name, len(byUniv[name]))
				printOrganizations(cmd.OutOrStdout(), classifier, byUniv[name])
			}
			return nil
		},
	}
	organizationsCmd.Flags().BoolVar(&opts.graduate, "graduate", false, "graduate schools only")

	searchCmd := &cobra.Command{
		Use:   "search <university> [fragment]",
		Short: "Find organizations by a name fragment",
		Long:  `Case-sensitive substring match on organization names. Without a fragment every organization matches.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadDirectory(cmd.Context())
			if err != nil {
				return err
			}
			classifier, err := a.classifier()
			if err != nil {
				return err
			}

			var fragment string
			if len(args) == 2 {
				fragment = args[1]
			}
			orgs := store.SearchOrganizationsByNameFragment(args[0], fragment)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), orgs)
			}
			printOrganizations(cmd.OutOrStdout(), classifier, orgs)
			return nil
		},
	}

	cmd.AddCommand(universitiesCmd, organizationsCmd, searchCmd)
	return cmd
}

func printOrganizations(w io.Writer, c *classify.Classifier, orgs []directory.OrganizationRecord) {
	for _, o := range orgs {
		id, err := o.Identifier()
		if err != nil {
			printf(w, "  %-24s %s\t(malformed ID)\n", o.ID, o.Name)
			continue
		}
		cl := c.Classify(id)
		printf(w, "  %-24s %-6s %-14s %s\n", o.ID, id.Pattern(), cl.FieldLabel, o.Name)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
