// Command waveview shows the waveform of an audio file, or renders it
// to a PNG image with --png.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/cellux/waveview/gles"
	"github.com/cellux/waveview/internal/audiofile"
	"github.com/cellux/waveview/internal/config"
	"github.com/cellux/waveview/internal/viewer"
	"github.com/cellux/waveview/soft"
	"github.com/cellux/waveview/waveform"
)

var logger = slog.Default()

func InitLogger(level string) error {
	l, err := config.NewLogger(level, os.Stderr)
	if err != nil {
		return err
	}
	logger = l
	waveform.SetLogger(l)
	soft.SetLogger(l)
	gles.SetLogger(l)
	viewer.SetLogger(l)
	return nil
}

func export(cfg *config.Config, samples *waveform.SampleBuffer) error {
	constants, err := cfg.Constants()
	if err != nil {
		return err
	}
	clearColor, err := cfg.ClearColor()
	if err != nil {
		return err
	}
	img, err := viewer.RenderImage(context.Background(), samples, viewer.FullView(samples.Count()), viewer.ExportOptions{
		Width:       cfg.Export.Width,
		Height:      cfg.Export.Height,
		Supersample: cfg.Export.Supersample,
		Constants:   constants,
		ClearColor:  clearColor,
	})
	if err != nil {
		return err
	}
	path, err := config.ExpandPath(cfg.Export.Path)
	if err != nil {
		return err
	}
	if err := viewer.WritePNG(path, img); err != nil {
		return err
	}
	logger.Info("exported", "path", path, "size", img.Bounds().Size())
	return nil
}

func run(args []string) error {
	cfg, args, err := config.Parse(args)
	if err != nil {
		return err
	}
	if err := InitLogger(cfg.LogLevel); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: waveview [flags] <file.wav|file.mp3>")
	}
	path, err := config.ExpandPath(args[0])
	if err != nil {
		return err
	}
	file, err := audiofile.Load(path)
	if err != nil {
		return err
	}
	samples, err := file.SampleBuffer(cfg.Channel)
	if err != nil {
		return err
	}
	logger.Debug("loaded", "path", path,
		"sampleRate", file.SampleRate,
		"channels", file.NumChannels(),
		"frames", file.NumFrames())
	if cfg.Export.Path != "" {
		return export(cfg, samples)
	}
	app := CreateApp(cfg, path, file, samples)
	return WithGL(fmt.Sprintf("waveview : %s", filepath.Base(path)), cfg.Window.Width, cfg.Window.Height, app)
}

func main() {
	err := run(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("%v\n", err)
	}
}
