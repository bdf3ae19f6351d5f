package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/pipeline"
	"github.com/matzehuels/nodify/pkg/registry"
)

// portsWidth bounds the ports columns of the functions table.
const portsWidth = 48

// functionsCommand creates the functions command listing the tables.
func (c *CLI) functionsCommand() *cobra.Command {
	var (
		tables    string
		namespace string
	)

	cmd := &cobra.Command{
		Use:   "functions [name]",
		Short: "List the operator and function tables",
		Long: `List the operator and function tables.

Without arguments every callable entry is listed, grouped by namespace in
lookup order. With a name, the entry that name resolves to is shown with
all of its ports.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Tables: tables}
			if _, err := pipeline.LoadTables(&opts); err != nil {
				return err
			}
			reg := opts.Registry
			if reg == nil {
				var err error
				if reg, err = registry.New(); err != nil {
					return err
				}
			}

			if len(args) == 1 {
				return c.showFunction(reg, args[0])
			}
			return c.listFunctions(reg, registry.Namespace(namespace))
		},
	}

	cmd.Flags().StringVar(&tables, "tables", "", "TOML file with extra function tables")
	cmd.Flags().StringVar(&namespace, "namespace", "", "only list one namespace: functions, math, vector_math")

	return cmd
}

func (c *CLI) listFunctions(reg *registry.Registry, only registry.Namespace) error {
	namespaces := registry.Namespaces()
	if only != "" {
		found := false
		for _, ns := range namespaces {
			found = found || ns == only
		}
		if !found {
			return errUsage("unknown namespace %q", only)
		}
		namespaces = []registry.Namespace{only}
	}

	for _, ns := range namespaces {
		entries := reg.Entries(ns)
		if len(entries) == 0 {
			continue
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.Name,
				e.Type,
				e.Op,
				truncate(portNames(e.Inputs), portsWidth),
				truncate(portNames(e.Outputs), portsWidth),
			})
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers("Name", "Type", "Op", "Inputs", "Outputs").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return styleHeader.Padding(0, 1)
				}
				if col == 0 {
					return StyleValue.Padding(0, 1)
				}
				return StyleDim.Padding(0, 1)
			})

		fmt.Fprintln(c.Out, StyleTitle.Render(string(ns)))
		fmt.Fprintln(c.Out, t.Render())
	}
	return nil
}

func (c *CLI) showFunction(reg *registry.Registry, name string) error {
	e, ok := reg.Lookup(name)
	if !ok {
		return errors.New(errors.ErrCodeUnknownFunction, "unknown function: %s", name)
	}

	p := c.stdout()
	p.keyValue("name", e.Name)
	p.keyValue("namespace", string(e.Namespace))
	p.keyValue("type", e.Type)
	if e.Op != "" {
		p.keyValue("op", e.Op)
	}
	p.keyValue("label", e.Label)
	if e.Sink {
		p.info("sink node, call it with its inputs instead of assigning to it")
	}
	for _, port := range e.Inputs {
		p.detail("in  %s", describePort(port))
	}
	for _, port := range e.Outputs {
		p.detail("out %s", describePort(port))
	}
	return nil
}

func portNames(ports []registry.PortSpec) string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		if !p.Disabled {
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}

func describePort(p registry.PortSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", p.Name, p.Type)
	if len(p.Default) > 0 {
		fmt.Fprintf(&b, " = %v", p.Default)
	}
	if p.Hidden {
		b.WriteString(" hidden")
	}
	if p.Disabled {
		b.WriteString(" disabled")
	}
	return b.String()
}
