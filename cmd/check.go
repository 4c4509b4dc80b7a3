package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/bookweave/internal/template"
)

// CheckCommand returns the check command
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate a prompt template for a pipeline stage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Template `FILE` to validate",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "stage",
				Aliases: []string{"s"},
				Usage:   "Pipeline stage (analysis, translation, optimization, proofreading)",
			},
		},
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	cfg, reg, err := setup(c)
	if err != nil {
		return err
	}
	stage, err := stageFromFlag(c, cfg)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	tpl := string(raw)

	log.Debug().Str("file", c.String("file")).Str("stage", string(stage)).Msg("Checking template")

	syntaxErrs := template.ValidateSyntax(tpl)
	for _, e := range syntaxErrs {
		if e.Line > 0 {
			fmt.Printf("syntax %s:%d:%d: %s\n    %s\n", c.String("file"), e.Line, e.Column, e.Message, e.Context)
		} else {
			fmt.Printf("syntax %s: %s\n", c.String("file"), e.Message)
		}
	}

	result := template.ValidateSemantics(tpl, stage, reg)
	for _, ref := range result.Invalid {
		fmt.Printf("invalid  {{%s}}: not defined in any category\n", ref)
	}
	for _, ref := range result.Warnings {
		fmt.Printf("warning  {{%s}}: defined, but out of scope for stage %s\n", ref, stage)
	}
	for _, ref := range result.Legacy {
		fmt.Printf("legacy   {{%s}}: prefer the canonical name\n", ref)
	}

	unknownMacros := template.ValidateMacros(tpl, stage, template.DefaultMacros())
	for _, name := range unknownMacros {
		fmt.Printf("warning  {{@%s}}: unknown macro for stage %s\n", name, stage)
	}

	fmt.Printf("%d reference(s): %d valid, %d invalid, %d warning(s), %d legacy\n",
		len(result.Valid)+len(result.Invalid)+len(result.Warnings),
		len(result.Valid), len(result.Invalid), len(result.Warnings), len(result.Legacy))

	var problems []string
	if len(syntaxErrs) > 0 {
		problems = append(problems, fmt.Sprintf("%d syntax error(s)", len(syntaxErrs)))
	}
	if !result.Clean() {
		problems = append(problems, fmt.Sprintf("%d invalid reference(s)", len(result.Invalid)))
	}
	if len(problems) > 0 {
		return fmt.Errorf("template check failed: %s", strings.Join(problems, ", "))
	}
	return nil
}
