package main

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/univ-archive/internal/console"
	"github.com/noah-isme/univ-archive/internal/dto"
)

type adminFlags struct {
	password string
}

func newAdminCmd(a *app) *cobra.Command {
	flags := &adminFlags{}
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Console d'administration",
		Long: `Console d'administration de l'archive. Chaque commande ouvre une session avec
le mot de passe administrateur (--password, ARCHIVE_ADMIN_PASSWORD ou saisie).`,
	}
	cmd.PersistentFlags().StringVar(&flags.password, "password", "", "mot de passe administrateur")

	cmd.AddCommand(
		newAdminUploadCmd(a, flags),
		newAdminFilesCmd(a, flags),
		newAdminEditCmd(a, flags),
		newAdminDeleteCmd(a, flags),
		newAdminStatsCmd(a, flags),
		newAdminExportCmd(a, flags),
	)
	return cmd
}

// session logs in and returns a console positioned on tab.
func (a *app) session(ctx context.Context, flags *adminFlags, tab console.Tab) (*console.Console, error) {
	password := flags.password
	if password == "" {
		password = a.cfg.AdminPassword
	}
	if password == "" {
		var err error
		if password, err = a.prompt("Mot de passe : "); err != nil {
			return nil, err
		}
	}
	c := console.New(a.client, a.maxUpload, a.logger)
	if err := c.Login(ctx, password); err != nil {
		return nil, err
	}
	if err := c.SelectTab(tab); err != nil {
		return nil, err
	}
	return c, nil
}

func newAdminUploadCmd(a *app, flags *adminFlags) *cobra.Command {
	var form dto.UploadForm
	cmd := &cobra.Command{
		Use:   "upload <fichier.pdf>",
		Short: "Téléverser un document PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("ouverture du fichier : %w", err)
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("lecture du fichier : %w", err)
			}

			c, err := a.session(ctx, flags, console.TabUpload)
			if err != nil {
				return err
			}
			c.SetDraft(console.Draft{
				Form:     form,
				Filename: filepath.Base(args[0]),
				MimeType: mime.TypeByExtension(strings.ToLower(filepath.Ext(args[0]))),
				Size:     info.Size(),
				Content:  f,
			})
			file, err := c.Submit(ctx)
			if err != nil {
				return err
			}
			a.print(a.view.Success(fmt.Sprintf("Document téléversé : %s (%s)", file.OriginalName, file.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Semester, "semester", "", "semestre (ex. s1)")
	cmd.Flags().StringVar(&form.Type, "type", "", "type : cours, tp, td, devoirs, compositions, ratrapages")
	cmd.Flags().StringVar(&form.Subject, "subject", "", "matière")
	cmd.Flags().StringVar(&form.Year, "year", "", "année (2024 ou 2023-2024)")
	return cmd
}

func newAdminFilesCmd(a *app, flags *adminFlags) *cobra.Command {
	var filter console.Filter
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Lister, rechercher et filtrer les documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context(), flags, console.TabManage)
			if err != nil {
				return err
			}
			if err := c.Refresh(cmd.Context()); err != nil {
				return err
			}
			c.SetFilter(filter)
			visible := c.Visible()
			a.print(a.view.FileTable(visible))
			a.print(fmt.Sprintf("%d / %d document(s)\n", len(visible), len(c.Files())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "recherche dans le nom ou la matière")
	cmd.Flags().StringVar(&filter.Semester, "semester", "", "filtrer par semestre")
	cmd.Flags().StringVar(&filter.Type, "type", "", "filtrer par type")
	return cmd
}

func newAdminEditCmd(a *app, flags *adminFlags) *cobra.Command {
	var name, semester, docType, subject, year string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Renommer ou déplacer un document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.UpdateFileRequest
			set := func(flag string, value *string) *string {
				if cmd.Flags().Changed(flag) {
					return value
				}
				return nil
			}
			req.OriginalName = set("name", &name)
			req.Semester = set("semester", &semester)
			req.Type = set("type", &docType)
			req.Subject = set("subject", &subject)
			req.Year = set("year", &year)
			if req.OriginalName == nil && !req.MovesHierarchy() {
				return fmt.Errorf("aucune modification demandée")
			}

			c, err := a.session(cmd.Context(), flags, console.TabManage)
			if err != nil {
				return err
			}
			file, err := c.Edit(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			a.print(a.view.Success("Document mis à jour : " + file.OriginalName))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "nouveau nom")
	cmd.Flags().StringVar(&semester, "semester", "", "nouveau semestre")
	cmd.Flags().StringVar(&docType, "type", "", "nouveau type")
	cmd.Flags().StringVar(&subject, "subject", "", "nouvelle matière")
	cmd.Flags().StringVar(&year, "year", "", "nouvelle année")
	return cmd
}

func newAdminDeleteCmd(a *app, flags *adminFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Supprimer un document après confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.session(ctx, flags, console.TabManage)
			if err != nil {
				return err
			}
			if err := c.Refresh(ctx); err != nil {
				return err
			}
			if err := c.RequestDelete(args[0]); err != nil {
				return err
			}
			file, _ := c.PendingDelete()
			if !yes && !a.confirm(fmt.Sprintf("Supprimer définitivement « %s » ?", file.OriginalName)) {
				c.CancelDelete()
				a.print("Suppression annulée\n")
				return nil
			}
			if err := c.ConfirmDelete(ctx); err != nil {
				return err
			}
			a.print(a.view.Success("Document supprimé : " + file.OriginalName))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "ne pas demander de confirmation")
	return cmd
}

func newAdminStatsCmd(a *app, flags *adminFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Afficher les statistiques",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context(), flags, console.TabStats)
			if err != nil {
				return err
			}
			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			a.print(a.view.Stats(*stats))
			return nil
		},
	}
}

func newAdminExportCmd(a *app, flags *adminFlags) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exporter les statistiques (csv ou pdf)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context(), flags, console.TabStats)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			name, err := c.Export(cmd.Context(), format, &buf)
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Base(name)
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("écriture du rapport : %w", err)
			}
			a.print(a.view.Success("Rapport enregistré : " + output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "format du rapport : csv ou pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "fichier de sortie (défaut : nom proposé par le serveur)")
	return cmd
}
