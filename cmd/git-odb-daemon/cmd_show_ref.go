package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdye/git-odb-refs/internal/refs"
)

func newShowRefCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show-ref [repository]",
		Short: "List references with their classification",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, repositoryArg(args))
			if err != nil {
				return err
			}

			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			all, err := database.References()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, ref := range all {
				fmt.Fprintf(out, "%s %s %s", ref.Oid(), refs.KindOf(ref), ref.LongName())
				if tag, ok := ref.(refs.AnnotatedTag); ok {
					fmt.Fprintf(out, " (tag %s)", tag.TagOid())
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
