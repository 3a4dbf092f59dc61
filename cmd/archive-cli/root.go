package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   programName,
		Short: "Parcourir et administrer l'archive universitaire",
		Long: `archive-cli parcourt l'archive des documents universitaires
(semestre → type → matière → année → fichier) et donne accès à la console d'administration.

La base de l'API est lue dans ARCHIVE_API_BASE_URL (défaut http://localhost:8080).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.teardown()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "URL de base de l'API (remplace ARCHIVE_API_BASE_URL)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "journalisation détaillée sur stderr")

	root.AddCommand(
		newSemestersCmd(a),
		newTypesCmd(a),
		newSubjectsCmd(a),
		newYearsCmd(a),
		newFilesCmd(a),
		newViewCmd(a),
		newDownloadCmd(a),
		newShareCmd(a),
		newHealthCmd(a),
		newAdminCmd(a),
	)
	return root
}
