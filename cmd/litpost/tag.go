package main

import (
	"fmt"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/jwtly10/litpost"
	"github.com/jwtly10/litpost/internal/config"
)

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag <directive>",
		Short: "Explain how a block directive is rendered",
		Example: `  litpost tag python:run:hide-in
  litpost tag --language sh sh:run:hide-out`,
		Args: cobra.ExactArgs(1),
		RunE: runTag,
	}

	cmd.Flags().StringP("language", "l", "", "Directive sentinel (default from config)")

	return cmd
}

func runTag(cmd *cobra.Command, args []string) error {
	language, _ := cmd.Flags().GetString("language")
	if language == "" {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		language = cfg.Language
	}

	directive := args[0]
	tag := litpost.ParseTag(language, directive)

	tbl := table.New("Option", "Value").
		WithHeaderFormatter(tableHeader).
		WithFirstColumnFormatter(tableKey).
		WithWriter(cmd.OutOrStdout())
	tbl.AddRow("directive", tag.Directive(language))
	tbl.AddRow("run", yesNo(tag.Run))
	tbl.AddRow("code", shownHidden(!tag.HideInput))
	tbl.AddRow("output", shownHidden(tag.Run && !tag.HideOutput))
	tbl.AddRow("hide-call", yesNo(tag.HideCall))
	tbl.Print()

	for _, p := range litpost.CheckDirective(language, directive) {
		label := dimStyle.Render("hint")
		switch p.Severity {
		case litpost.SeverityWarning:
			label = warningStyle.Render("warning")
		case litpost.SeverityError:
			label = errorStyle.Render("error")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d:%d %s\n", label, p.Start, p.End, p.Message)
	}

	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func shownHidden(b bool) string {
	if b {
		return "shown"
	}
	return "hidden"
}
