package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/origadmin/dirgen/internal/catalog"
	"github.com/origadmin/dirgen/internal/core"
	"github.com/origadmin/dirgen/internal/model"
	"github.com/origadmin/dirgen/internal/types"
)

// document is the extract command's output.
type document struct {
	Directives *catalog.Catalog      `json:"directives" yaml:"directives"`
	Report     *core.Report          `json:"report" yaml:"report"`
	Filtered   []string              `json:"filtered,omitempty" yaml:"filtered,omitempty"`
	Overridden []model.OverrideEvent `json:"overridden,omitempty" yaml:"overridden,omitempty"`
	// Masks lists every mask of the directives overridden with more than one.
	Masks     map[string][]*model.Record `json:"masks,omitempty" yaml:"masks,omitempty"`
	Unmatched []string                   `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
}

func newExtractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [flags] [source...]",
		Short: "Write the merged directive catalog and the run report as JSON or YAML",
		Example: `  dirgen extract ./nginx/src
  dirgen extract --format yaml -o directives.yaml ./nginx/src ./njs/nginx`,
	}
	keys := a.commonFlags(cmd.Flags())
	cmd.Flags().StringP("format", "f", "", "output format: json or yaml (default json)")
	keys["output.format"] = "format"

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := a.load(cmd, args, keys)
		if err != nil {
			return err
		}
		res, err := run(cmd.Context(), a.fs, cfg)
		if err != nil {
			return err
		}
		out, err := encode(cfg.Output.Format, document{
			Directives: res.Plan.Catalog,
			Report:     res.Report,
			Filtered:   res.Plan.Filtered,
			Overridden: res.Plan.Overrides,
			Masks:      severalMasks(res.Plan.Masks),
			Unmatched:  res.Plan.Unmatched,
		})
		if err != nil {
			return err
		}
		return a.write(cmd, cfg.Output.Path, out)
	}
	return cmd
}

func severalMasks(masks map[string][]*model.Record) map[string][]*model.Record {
	out := make(map[string][]*model.Record)
	for name, recs := range masks {
		if len(recs) > 1 {
			out[name] = recs
		}
	}
	return out
}

func encode(format string, doc document) ([]byte, error) {
	switch format {
	case "", types.FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case types.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
