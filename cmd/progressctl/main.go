package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"catbattle/internal/config"
	"catbattle/internal/serverapp"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"catbattle.yml" type:"path"`
	EnvFile string `help:"Dotenv file loaded before the config" default:".env"`

	Show   ShowCmd   `cmd:"" help:"Print the saved progress as JSON"`
	Check  CheckCmd  `cmd:"" help:"Report whether storage works and the save is intact"`
	Export ExportCmd `cmd:"" help:"Copy the raw save to a file"`
	Import ImportCmd `cmd:"" help:"Load a save file, repairing it if needed"`
	Reset  ResetCmd  `cmd:"" help:"Erase the saved progress"`
}

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("progressctl"),
		kong.Description("Inspect and manage saved cat card battle progress."),
		kong.UsageOnError(),
	)

	if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		ctx.FatalIfErrorf(fmt.Errorf("loading %s: %w", c.EnvFile, err))
	}
	cfg, err := config.Load(c.Config)
	ctx.FatalIfErrorf(err)

	app, err := serverapp.Open(serverapp.Options{Config: cfg, Logger: cfg.Log.NewLogger(os.Stderr)})
	ctx.FatalIfErrorf(err)
	defer app.Close()

	ctx.FatalIfErrorf(ctx.Run(app))
}

func defaultExportPath() string {
	ts := time.Now().UTC().Format("20060102T150405Z")
	return filepath.Join("exports", "catbattle-"+ts+".json")
}
