package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"Pixie/ai"
	"Pixie/bot"
	"Pixie/imagery"
	"Pixie/lib/sl"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "pixie",
		Short:        "Generate and vary images with the OpenAI image API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "conf", "config.yml", "path to config file")

	withApp := func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return run(cmd, a, args)
		}
	}

	root.AddCommand(
		newGenerateCmd(withApp),
		newVaryCmd(withApp),
		newHistoryCmd(withApp),
		newBotCmd(withApp),
	)
	return root
}

type runWithApp func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newGenerateCmd(withApp runWithApp) *cobra.Command {
	var (
		prompt, name, size, model, quality, style, out string
		n                                              int
	)
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate images from a text prompt",
		Example: `  pixie generate --name test --out /tmp/images "residential landscape with quaint house"
  pixie generate --name garden --n 2 --size 1024x1024 "a walled garden at dawn"`,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if prompt == "" {
				prompt = strings.Join(args, " ")
			}
			if strings.TrimSpace(prompt) == "" {
				return errors.New("a prompt is required")
			}
			if !cmd.Flags().Changed("size") {
				size = a.conf.Images.Size
			}

			ctx, stop := signalContext()
			defer stop()

			res, err := imagery.NewGenerator(a.settings(out)).Generate(ctx, imagery.GenerationRequest{
				OutputDir: out,
				FileName:  name,
				Params: ai.GenerateParams{
					Prompt:  prompt,
					Model:   model,
					N:       n,
					Size:    size,
					Quality: quality,
					Style:   style,
				},
			})
			if err != nil {
				return err
			}
			for _, file := range res.Files {
				fmt.Fprintln(cmd.OutOrStdout(), file)
			}
			if res.Err != nil {
				return fmt.Errorf("generation %s: %w", res.Status(), res.Err)
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&prompt, "prompt", "p", "", "text prompt, defaults to the positional arguments")
	f.StringVar(&name, "name", "image", "base file name, written as <name>.jpg or <name>-<i>.jpg")
	f.IntVar(&n, "n", 1, "number of images to generate")
	f.StringVar(&size, "size", "", "image size, defaults to images.size")
	f.StringVar(&model, "model", "", "model, defaults to images.model")
	f.StringVar(&quality, "quality", "", "image quality, passed through to the provider")
	f.StringVar(&style, "style", "", "image style, passed through to the provider")
	f.StringVar(&out, "out", "", "absolute output directory, defaults to output_dir")
	return cmd
}

func newVaryCmd(withApp runWithApp) *cobra.Command {
	var (
		images      []string
		size, out   string
		saveCropped bool
	)
	cmd := &cobra.Command{
		Use:   "vary",
		Short: "Crop images to a square and create a variation of each",
		Example: `  pixie vary --out /tmp/images --image house=./house.png
  pixie vary --out /tmp/images --image https://example.com/photo.jpg --size 256x256`,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			images = append(images, args...)
			sources := make([]imagery.Source, 0, len(images))
			for _, arg := range images {
				src, err := imagery.ParseSource(arg)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}
			if !cmd.Flags().Changed("size") {
				size = a.conf.Images.Size
			}
			cropSize, err := imagery.ParseSize(size)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("save-cropped") {
				saveCropped = a.conf.Images.SaveCropped
			}

			ctx, stop := signalContext()
			defer stop()

			req := imagery.NewVariationRequest(out, sources...)
			req.Size = cropSize
			req.SaveCropped = saveCropped

			res, err := imagery.NewVariator(a.settings(out)).Vary(ctx, req)
			if err != nil {
				return err
			}
			for _, it := range res.Items {
				if it.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", it.Name, it.Err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), it.Path)
			}
			if failed := len(res.Failed()); failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(res.Items))
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringArrayVarP(&images, "image", "i", nil, "image as [name=]path or [name=]url, repeatable")
	f.StringVar(&size, "size", "", "square crop size: 256x256, 512x512 or 1024x1024")
	f.BoolVar(&saveCropped, "save-cropped", true, "keep the cropped image under <out>/cropped")
	f.StringVar(&out, "out", "", "absolute output directory, defaults to output_dir")
	return cmd
}

func newHistoryCmd(withApp runWithApp) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently saved images",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if !a.conf.Mongo.Enabled {
				a.log.Warn("mongo is disabled, history only covers this process")
			}
			records, err := a.store.ListImages(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tKIND\tNAME\tSIZE\tPATH")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.CreatedAt.Format(time.DateTime), r.Kind, r.Name, r.Size, r.Path)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of records to show, 0 for all")
	return cmd
}

func newBotCmd(withApp runWithApp) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve /imagine and /vary over Telegram",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			log := a.log
			size, err := defaultSize(a.conf)
			if err != nil {
				return err
			}

			tgBot, err := bot.NewTgBot(a.conf, log)
			if err != nil {
				log.Error("creating telegram", sl.Err(err))
				return err
			}
			tgBot.SetImages(imagery.NewService(a.settings(""), size, a.conf.Images.SaveCropped))

			var server *http.Server
			if a.metrics != nil {
				mux := http.NewServeMux()
				mux.Handle("/metrics", a.metrics.Handler())
				server = &http.Server{Addr: a.conf.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("metrics server", sl.Err(err))
					}
				}()
				log.Info("metrics listening", slog.String("addr", a.conf.Metrics.Listen))
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := tgBot.Start(); err != nil {
					log.Error("bot stopped with error", sl.Err(err))
				}
			}()

			log.Info("bot started")

			sig := <-sigChan
			log.Info("received signal, shutting down", slog.String("signal", sig.String()))

			tgBot.Stop()
			if server != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					log.Error("stopping metrics server", sl.Err(err))
				}
			}

			log.Info("shutdown complete")
			return nil
		}),
	}
}
