package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/emrlaunch/emrlaunch/internal/sfn"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	fixedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
)

var describeCmd = &cobra.Command{
	Use:   "describe [TASK_KIND]",
	Short: "List task kinds or show the parameter fields of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Println(kindsTable())
			return nil
		}
		tmpl, err := sfn.TemplateFor(sfn.TaskKind(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(fieldsTable(tmpl))
		return nil
	},
}

func kindsTable() string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("KIND", "FIELDS", "FIXED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, k := range sfn.Kinds() {
		tmpl, err := sfn.TemplateFor(k)
		if err != nil {
			continue
		}
		t.Row(string(k), fmt.Sprint(len(tmpl.FieldNames())), fmt.Sprint(len(tmpl.FixedFields())))
	}
	return t.String()
}

func fieldsTable(tmpl sfn.Template) string {
	var rows [][]string
	var walk func(rules []sfn.FieldRule, prefix string)
	walk = func(rules []sfn.FieldRule, prefix string) {
		for _, r := range rules {
			name := r.Name
			if prefix != "" {
				name = prefix + "." + r.Name
			}
			if len(r.Fields) > 0 {
				rows = append(rows, []string{name, "object", ""})
				walk(r.Fields, name)
				continue
			}
			rows = append(rows, []string{name, ruleMode(r), ruleValue(r)})
		}
	}
	walk(tmpl.Fields, "")

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("FIELD", "ACCEPTS", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case rows[row][1] == "fixed":
				return fixedStyle
			}
			return cellStyle
		})
	return t.String()
}

func ruleMode(r sfn.FieldRule) string {
	if r.Fixed != nil {
		return "fixed"
	}
	var accepts []string
	if r.Literal {
		accepts = append(accepts, "literal")
	}
	if r.Path {
		accepts = append(accepts, "path")
	}
	mode := strings.Join(accepts, ", ")
	if r.Required {
		mode += " (required)"
	}
	return mode
}

func ruleValue(r sfn.FieldRule) string {
	v := r.Fixed
	prefix := ""
	if v == nil {
		v, prefix = r.Default, "default "
	}
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return prefix + string(b)
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
