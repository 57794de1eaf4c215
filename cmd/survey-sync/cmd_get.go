package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func runGet(cmd *cobra.Command, args []string) error {
	c, loc, err := newStoreClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	def, err := c.FetchDefinition(ctx, loc.SurveyID)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, def, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func runProperties(cmd *cobra.Command, args []string) error {
	c, loc, err := newStoreClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	props, err := c.FetchProperties(ctx, loc.SurveyID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTYPE\tCHOICES")
	for _, p := range props {
		choices := make([]string, 0, len(p.Choices))
		for _, choice := range p.Choices {
			choices = append(choices, fmt.Sprint(choice))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Key, p.Type, strings.Join(choices, ", "))
	}
	return w.Flush()
}
