//go:build js && wasm

// Command mailkeys-wasm is the in-page overlay. Load it with wasm_exec.js from a
// userscript or extension content script on the mail client. Settings come from
// two optional globals set before the module starts:
//
//	mailkeysConfig    JSON configuration (string or object)
//	mailkeysLocators  YAML locator overrides
//
// window.mailkeysStop() detaches the overlay.
package main

import (
	"errors"
	"log"
	"os"
	"syscall/js"

	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/dom/jsdom"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/logging"
	"github.com/ajramos/mailkeys/internal/overlay"
)

func main() {
	// Warnings always reach the console; operation logging only when verbose
	console := logging.New(os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		console.Printf("config: %v; using defaults", err)
		cfg = config.DefaultConfig()
	}
	var logger *log.Logger
	if cfg.Verbose {
		logger = console
	}

	table, err := loadTable()
	if err != nil {
		console.Printf("locators: %v; using built-in table", err)
		if table, err = locator.DefaultTable(); err != nil {
			console.Printf("locators: %v", err)
			return
		}
	}

	doc := jsdom.New()
	doc.Loaded()

	ov := overlay.New(doc, table, jsdom.NewScheduler(), cfg, logger)
	if err := ov.Start(); err != nil {
		if !errors.Is(err, overlay.ErrInactive) {
			console.Printf("start: %v", err)
		}
		return
	}

	stopped := make(chan struct{})
	var stop js.Func
	stop = js.FuncOf(func(js.Value, []js.Value) any {
		ov.Stop()
		js.Global().Delete("mailkeysStop")
		stop.Release()
		close(stopped)
		return nil
	})
	js.Global().Set("mailkeysStop", stop)
	<-stopped
}

// global returns a page global as text, stringifying objects as JSON
func global(name string) string {
	v := js.Global().Get(name)
	switch v.Type() {
	case js.TypeString:
		return v.String()
	case js.TypeObject:
		return js.Global().Get("JSON").Call("stringify", v).String()
	}
	return ""
}

func loadConfig() (*config.Config, error) {
	return config.ParseConfig([]byte(global("mailkeysConfig")))
}

func loadTable() (*locator.Table, error) {
	data := global("mailkeysLocators")
	if data == "" {
		return locator.DefaultTable()
	}
	return locator.OverlayTable([]byte(data))
}
