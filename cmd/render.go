package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/bookweave/internal/template"
)

// RenderCommand returns the render command
func RenderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render a prompt template with concrete variable values",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Template `FILE` to render",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "values",
				Aliases: []string{"v"},
				Usage:   "JSON `FILE` mapping full variable names to values",
			},
			&cli.StringFlag{
				Name:    "stage",
				Aliases: []string{"s"},
				Usage:   "Pipeline stage the template belongs to",
			},
		},
		Action: runRender,
	}
}

func runRender(c *cli.Context) error {
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

	vals := template.Values{}
	if path := c.String("values"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read values: %w", err)
		}
		if err := json.Unmarshal(data, &vals); err != nil {
			return fmt.Errorf("failed to parse values: %w", err)
		}
	}

	// Surface missing required variables before rendering; the render
	// itself degrades them to empty text.
	for _, full := range reg.RequiredFor(stage) {
		if _, ok := vals[full]; !ok {
			log.Warn().Str("variable", full).Msg("Required variable has no value")
		}
	}

	out, err := template.Render(tpl, stage, vals, template.DefaultMacros())
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	fmt.Println(out)
	return nil
}
