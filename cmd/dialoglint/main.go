// Command dialoglint validates a dialog XML document against a script
// directory: every tree must load cleanly (index targets resolve, branch
// pages carry predicates) and every branch predicate must exist as a Lua
// function. Run it in CI before shipping new dialog content.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ashvale/server/internal/dialog"
	"github.com/ashvale/server/internal/scripting"
)

func main() {
	dialogsPath := flag.String("dialogs", "data/dialogs.xml", "dialog XML document to check")
	scriptsDir := flag.String("scripts", "scripts", "Lua script directory holding predicates")
	flag.Parse()

	if err := run(*dialogsPath, *scriptsDir); err != nil {
		fmt.Fprintf(os.Stderr, "dialoglint: %v\n", err)
		os.Exit(1)
	}
}

func run(dialogsPath, scriptsDir string) error {
	store, err := dialog.Load(dialogsPath)
	if err != nil {
		return err
	}

	engine, err := scripting.NewEngine(scriptsDir, zap.NewNop())
	if err != nil {
		return err
	}
	defer engine.Close()

	problems := 0
	for _, tree := range store.All() {
		for _, page := range tree.Pages() {
			if page.Branch == nil {
				continue
			}
			if !engine.HasFunction(page.Branch.Predicate) {
				fmt.Fprintf(os.Stderr, "dialog %d page %d: predicate %q not defined in %s\n",
					tree.ID, page.Index, page.Branch.Predicate, scriptsDir)
				problems++
			}
		}
	}

	if problems > 0 {
		return fmt.Errorf("%d missing predicate(s)", problems)
	}
	fmt.Printf("ok: %d tree(s) checked\n", store.Count())
	return nil
}
