package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/food-vision-mcp/internal/recognition"
)

func newGroupsCmd(root *rootOptions, log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Show the category groups and their classifiers",
		Long: `Show the routing table from the config: each category group, the detector
classes routed to it and the classifier model that serves it. No models are
loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			router := recognition.NewRouter(cfg.Groups)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tCLASSIFIER\tCLASSES")
			fmt.Fprintln(tw, "-----\t----------\t-------")
			for _, name := range router.Groups() {
				model := "-"
				if c, ok := cfg.Classifiers[name]; ok {
					model = c.Model
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, model, strings.Join(router.Members(name), ", "))
			}
			log.WithField("groups", len(cfg.Groups)).Debug("listed groups")
			return tw.Flush()
		},
	}
}
