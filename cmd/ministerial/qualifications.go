package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/rules"
)

var qualificationOpts struct {
	cargo  string
	gender string
	age    int
}

var qualificationsCmd = &cobra.Command{
	Use:   "qualifications",
	Short: "Print the part types a cargo, gender and age qualify for",
	Long: `Evaluates the qualification table offline, without a database.

Example:
  ministerial qualifications --cargo estudante_novo --gender feminino --age 20`,
	RunE: runQualifications,
}

func init() {
	f := qualificationsCmd.Flags()
	f.StringVar(&qualificationOpts.cargo, "cargo", "", "cargo ("+joinCargos()+")")
	f.StringVar(&qualificationOpts.gender, "gender", "", "masculino or feminino")
	f.IntVar(&qualificationOpts.age, "age", 18, "age in years")
	_ = qualificationsCmd.MarkFlagRequired("cargo")
	_ = qualificationsCmd.MarkFlagRequired("gender")
}

func runQualifications(cmd *cobra.Command, _ []string) error {
	cargo, err := models.ParseCargo(qualificationOpts.cargo)
	if err != nil {
		return err
	}
	gender := models.Gender(qualificationOpts.gender)
	if !gender.Valid() {
		return fmt.Errorf("unknown gender %q", qualificationOpts.gender)
	}

	table := rules.NewTable(cfg.Generator.MinorAge)
	set := table.Qualifications(cargo, gender, qualificationOpts.age)
	out := cmd.OutOrStdout()
	for _, t := range set.Types() {
		spec, _ := rules.Spec(t)
		fmt.Fprintf(out, "%-14s %-10s %s\n", t, spec.Section, spec.Title)
	}
	if len(set.Types()) == 0 {
		fmt.Fprintln(out, "no qualifying part types")
	}
	return nil
}

func joinCargos() string {
	names := make([]string, 0, len(models.Cargos))
	for _, c := range models.Cargos {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
