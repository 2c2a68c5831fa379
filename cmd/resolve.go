package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/greut/picture/picture"
	"github.com/greut/picture/server"
	"github.com/greut/picture/source"
	"github.com/greut/picture/svg"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var (
		output  string
		options string
	)

	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Print the sources or the markup of a local image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var raw map[string]interface{}
			if options != "" {
				if err := json.Unmarshal([]byte(options), &raw); err != nil {
					return fmt.Errorf("invalid options: %w", err)
				}
			}
			opts, err := picture.DecodeOptions(raw)
			if err != nil {
				logger.Warn("some options were ignored", "err", err)
			}

			images := config.Images
			images.Path = filepath.Dir(args[0])
			provider, err := source.NewProviderFromConfig(images)
			if err != nil {
				return err
			}

			id := filepath.Base(args[0])
			im, err := provider.Describe(ctx, id)
			if err != nil {
				return err
			}

			res := server.NewEngine(config, logger).Resolve(ctx, im, opts)

			if output == "json" {
				b, err := json.MarshalIndent(&server.Resolution{Result: res, Elements: res.Flatten()}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			var html template.HTML
			switch {
			case output == "img":
				html, err = picture.RenderImg(res, opts, config.Picture)
			case output != "picture":
				return fmt.Errorf("unknown output %#v", output)
			case im.IsSVG():
				var buffer []byte
				buffer, err = provider.Read(ctx, id)
				if err != nil {
					return err
				}
				content := svg.NewOptimizer(config.Picture.EnableSVGOptimization, logger).Optimize(string(buffer))
				html, err = picture.RenderSVG(im, []byte(content), id, opts, config.Picture)
			default:
				html, err = picture.RenderPicture(res, opts, config.Picture)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "picture", "output: picture, img or json")
	cmd.Flags().StringVar(&options, "options", "", "options as a JSON object")
	return cmd
}
