package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newCapabilitiesCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List the registered capabilities and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cli.initialize(ctx); err != nil {
				return err
			}
			defer cli.shutdown(ctx)

			for _, def := range cli.container.Registry.List() {
				fmt.Printf("%s  %s\n", bold(def.Name), gray(def.Description))

				names := make([]string, 0, len(def.Parameters.Properties))
				for name := range def.Parameters.Properties {
					names = append(names, name)
				}
				sort.Strings(names)

				required := make(map[string]bool, len(def.Parameters.Required))
				for _, name := range def.Parameters.Required {
					required[name] = true
				}
				for _, name := range names {
					prop := def.Parameters.Properties[name]
					marker := " "
					if required[name] {
						marker = "*"
					}
					fmt.Printf("  %s %s (%s) %s\n", marker, name, prop.Type, gray(prop.Description))
				}
			}
			return nil
		},
	}
}
