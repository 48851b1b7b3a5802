package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdye/git-odb-refs/internal/types"
)

func newCatObjectCmd(flags *globalFlags) *cobra.Command {
	var repository string
	var showContent bool

	cmd := &cobra.Command{
		Use:   "cat-object <oid>",
		Short: "Print the type and size of an object, and optionally its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oid, err := types.ParseObjectId(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(flags, repository)
			if err != nil {
				return err
			}

			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			info, err := database.ReadObject(oid, showContent)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %d", info.Oid, info.Type, info.Size)
			if !info.DeltaBase.IsZero() {
				fmt.Fprintf(out, " delta %s", info.DeltaBase)
			}
			fmt.Fprintln(out)
			if showContent {
				_, err = out.Write(info.Content)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&repository, "repository", "r", "", "repository to read from")
	cmd.Flags().BoolVarP(&showContent, "content", "p", false, "print the object content")

	return cmd
}
