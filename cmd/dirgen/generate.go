package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/origadmin/dirgen/internal/generator"
	"github.com/origadmin/dirgen/internal/template"
)

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [flags] [source...]",
		Short: "Generate the Go support file of the directives found in the sources",
		Example: `  dirgen generate --map-name ngxDirectives --match-func MatchNginx -o analyze_nginx_directives.go ./nginx/src
  dirgen generate --filter hash --override "hash:NGX_HTTP_UPS_CONF|NGX_CONF_TAKE12" ./nginx/src`,
	}
	keys := a.commonFlags(cmd.Flags())
	cmd.Flags().String("package", "", "package name of the generated file (default crossplane)")
	cmd.Flags().String("map-name", "", "name of the directive map variable, generally lowercase")
	cmd.Flags().String("match-func", "", "name of the match function, generally uppercase")
	cmd.Flags().String("match-comment", "", "comment written above the match function")
	cmd.Flags().String("template", "", "template file or directory replacing the embedded support file template")
	keys["generate.packageName"] = "package"
	keys["generate.directiveMapName"] = "map-name"
	keys["generate.matchFuncName"] = "match-func"
	keys["generate.matchFuncComment"] = "match-comment"
	keys["generate.template"] = "template"

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := a.load(cmd, args, keys)
		if err != nil {
			return err
		}
		if err := cfg.ValidateGenerate(); err != nil {
			return err
		}

		res, err := run(cmd.Context(), a.fs, cfg)
		if err != nil {
			return err
		}

		gen := generator.New(res.Registry)
		if cfg.Generate.Template != "" {
			m := template.NewManager()
			if err := m.Load(a.fs, cfg.Generate.Template); err != nil {
				return err
			}
			gen.SetRenderer(m)
		}
		opts := generator.Options{
			PackageName:      cfg.Generate.PackageName,
			MapName:          cfg.Generate.DirectiveMapName,
			MatchFuncName:    cfg.Generate.MatchFuncName,
			MatchFuncComment: cfg.Generate.MatchFuncComment,
		}
		if cfg.Output.Path != "" {
			opts.Filename = filepath.Base(cfg.Output.Path)
		}
		out, err := gen.GeneratePlan(res.Plan, opts)
		if err != nil {
			return err
		}
		return a.write(cmd, cfg.Output.Path, out)
	}
	return cmd
}
