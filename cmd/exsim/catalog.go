package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stemsi/exsim-backend/internal/service"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List assessment modules, modes and difficulty profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		showModes, _ := cmd.Flags().GetBool("modes")
		svc := service.NewCatalogService()
		out := cmd.OutOrStdout()

		if showModes {
			return printModes(out, svc)
		}
		return printModules(out, svc)
	},
}

func init() {
	catalogCmd.Flags().Bool("modes", false, "List exam modes and difficulty profiles instead of modules")
}

func printModules(out io.Writer, svc *service.CatalogService) error {
	view := svc.Modules()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tTIME\tACTIVE")
	for _, m := range view.Modules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%ds\t%t\n", m.ID, m.Title, m.Category, m.TimeLimit, m.Active)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d active modules\n", view.ActiveCount)
	return nil
}

func printModes(out io.Writer, svc *service.CatalogService) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODE\tMODULES\tMINUTES")
	for _, m := range svc.Modes() {
		fmt.Fprintf(tw, "%s\t%d\t~%d\n", m.ID, m.ModuleCount, m.EstimatedMinutes)
	}
	fmt.Fprintln(tw, "")
	fmt.Fprintln(tw, "LEVEL\tPROFILE\tTIME x\tITEMS x")
	for _, p := range svc.DifficultyProfiles() {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\n", p.Level, p.Name, p.TimeMultiplier, p.ItemCountMultiplier)
	}
	return tw.Flush()
}
