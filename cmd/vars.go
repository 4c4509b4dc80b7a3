package cmd

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/bookweave/pkg/models"
)

// VarsCommand returns the vars command
func VarsCommand() *cli.Command {
	return &cli.Command{
		Name:  "vars",
		Usage: "List the template variables available to prompts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "stage",
				Aliases: []string{"s"},
				Usage:   "Only show variables in scope for this stage",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Only show one category (project, content, context, pipeline, derived, meta, user)",
			},
		},
		Action: runVars,
	}
}

func runVars(c *cli.Context) error {
	_, reg, err := setup(c)
	if err != nil {
		return err
	}

	var stage models.Stage
	if c.String("stage") != "" {
		stage, err = models.ParseStage(c.String("stage"))
		if err != nil {
			return err
		}
	}

	for _, cat := range reg.Categories() {
		if c.String("category") != "" && cat.Key != c.String("category") {
			continue
		}
		printed := false
		for _, def := range cat.Variables {
			if stage != "" && !def.InStage(stage) {
				continue
			}
			if !printed {
				fmt.Printf("%s (%s)\n", cat.Label, cat.Key)
				printed = true
			}
			marker := " "
			if def.Required {
				marker = "*"
			}
			suffix := ""
			if def.IsLegacy {
				suffix = fmt.Sprintf("  [legacy, use %s]", def.CanonicalName)
			}
			fmt.Printf("  %s {{%s}}  %s  %s%s\n", marker, def.FullName, def.Type, def.Description, suffix)
		}
	}

	aliases := reg.Aliases()
	froms := make([]string, 0, len(aliases))
	for from := range aliases {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		fmt.Printf("alias {{%s}} -> {{%s}}\n", from, aliases[from])
	}
	return nil
}
