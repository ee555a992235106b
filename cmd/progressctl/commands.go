package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"catbattle/internal/ops"
	"catbattle/internal/serverapp"
)

type ShowCmd struct {
	Raw bool `help:"Print the stored text without repairs"`
}

func (c *ShowCmd) Run(app *serverapp.App) error {
	if c.Raw {
		return ops.ExportSave(app.Adapter, os.Stdout)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(app.Adapter.LoadState())
}

type CheckCmd struct{}

func (c *CheckCmd) Run(app *serverapp.App) error {
	if !app.Adapter.IsStorageAvailable() {
		return fmt.Errorf("storage is not available")
	}
	fmt.Println("storage: ok")

	raw, ok := app.Adapter.Raw()
	if !ok {
		fmt.Println("save: none")
		return nil
	}
	if !json.Valid([]byte(raw)) {
		fmt.Println("save: corrupt, will load as defaults")
		return nil
	}
	state := app.Adapter.LoadState()
	digest, err := ops.Digest(state)
	if err != nil {
		return err
	}
	fmt.Printf("save: version %s, %d cards, %d packs opened\n",
		state.Version, len(state.GameProgress.UserCollection), state.GameProgress.TotalPacksOpened)
	fmt.Println("digest:", digest)
	return nil
}

type ExportCmd struct {
	Out string `short:"o" help:"Output file (defaults to exports/catbattle-<timestamp>.json)"`
}

func (c *ExportCmd) Run(app *serverapp.App) error {
	out := c.Out
	if out == "" {
		out = defaultExportPath()
	}
	if err := ops.ExportSaveFile(app.Adapter, out); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

type ImportCmd struct {
	In string `arg:"" help:"Save file to import" type:"existingfile"`
}

func (c *ImportCmd) Run(app *serverapp.App) error {
	repaired, err := ops.ImportSaveFile(app.Adapter, c.In, time.Now().UTC())
	if err != nil {
		return err
	}
	if repaired {
		fmt.Println("imported with repairs")
	} else {
		fmt.Println("imported")
	}
	return nil
}

type ResetCmd struct {
	Yes bool `help:"Confirm erasing the save" required:""`
}

func (c *ResetCmd) Run(app *serverapp.App) error {
	app.Store.ResetProgress()
	if _, ok := app.Adapter.Raw(); ok {
		return fmt.Errorf("save was not erased")
	}
	fmt.Println("progress reset")
	return nil
}
