package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/internal/client"
	"github.com/noah-isme/univ-archive/internal/models"
)

func newSemestersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "semesters",
		Aliases: []string{"home"},
		Short:   "Lister les semestres",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listSemesters(cmd.Context())
		},
	}
}

// listSemesters is the home listing: transient failures are retried with a
// linear backoff and, once retries are exhausted, the user may retry manually.
func (a *app) listSemesters(ctx context.Context) error {
	b := client.NewBackoff(a.cfg.RetryBaseDelay, a.logger)
	query := client.SemestersQuery()

	semesters, err := query.FetchWithRetry(ctx, a.client, b)
	for err != nil && b.Exhausted() && ctx.Err() == nil {
		a.print(a.errorPanel(err, fmt.Sprintf("Échec après %d tentatives.", client.DefaultMaxAttempts)))
		if !a.confirm("Réessayer ?") {
			return errReported
		}
		b.Reset()
		semesters, err = query.FetchWithRetry(ctx, a.client, b)
	}
	if err != nil {
		return err
	}
	a.print(a.view.Cards("Semestres", a.cards.Semesters(semesters), "Aucun semestre disponible"))
	return nil
}

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types <semestre>",
		Short: "Lister les types de documents d'un semestre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := a.client.ListTypes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.print(a.view.Cards("Types de documents", a.cards.Types(args[0], types), "Aucun type de document"))
			return nil
		},
	}
}

func newSubjectsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects <semestre> <type>",
		Short: "Lister les matières",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects, err := a.client.ListSubjects(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			a.print(a.view.Cards("Matières", a.cards.Subjects(args[0], args[1], subjects), "Aucune matière"))
			return nil
		},
	}
}

func newYearsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "years <semestre> <type> <matière>",
		Short: "Lister les années d'une matière",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			years, err := a.client.ListYears(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			a.print(a.view.Cards("Années", a.cards.Years(years), "Aucune année"))
			return nil
		},
	}
}

func newFilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files <année>",
		Short: "Lister les documents d'une année",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.client.ListFiles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.print(a.view.Cards("Documents", a.cards.Files(files), "Aucun document"))
			return nil
		},
	}
}

func newViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <fichier>",
		Short: "Ouvrir un document dans le navigateur",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			url, err := a.client.ViewURL(models.File{ID: args[0]})
			if err != nil {
				return err
			}
			if err := a.open(url); err != nil {
				a.logger.Debug("browser opener failed", zap.Error(err))
				a.print(fmt.Sprintf("Impossible d'ouvrir le navigateur. Ouvrez ce lien :\n%s\n", url))
				return nil
			}
			a.print(a.view.Success("Document ouvert dans le navigateur"))
			return nil
		},
	}
}

func newDownloadCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download <fichier>",
		Short: "Télécharger un document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.client.DownloadTo(cmd.Context(), models.File{ID: args[0]}, dir)
			if err != nil {
				return err
			}
			a.print(a.view.Success("Document enregistré : " + path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "dossier de destination")
	return cmd
}

func newShareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "share <fichier>",
		Short: "Créer un lien de partage temporaire",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := a.client.Share(cmd.Context(), models.File{ID: args[0]})
			if err != nil {
				return err
			}
			a.print(fmt.Sprintf("%s\nValide jusqu'au %s\n", link.URL, link.ExpiresAt.Local().Format("02/01/2006 15:04")))
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "État du serveur",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			a.print(fmt.Sprintf("Statut : %s (stockage %s, en ligne depuis %s)\n", status.Status, status.Provider, status.Uptime))
			names := make([]string, 0, len(status.Checks))
			for name := range status.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				a.print(fmt.Sprintf("  %-10s %s\n", name, status.Checks[name]))
			}
			if status.Status == client.HealthDown {
				return errReported
			}
			return nil
		},
	}
}
