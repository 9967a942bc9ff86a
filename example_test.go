package padnote_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/padnote"
	"github.com/aretw0/padnote/pkg/adapters/clipboard"
	"github.com/aretw0/padnote/pkg/registry"
)

// Example_basic opens a configuration directory, creates a note and lists it.
func Example_basic() {
	dir, err := os.MkdirTemp("", "padnote-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	app, err := padnote.Init(dir,
		padnote.WithClipboard(&clipboard.Memory{}),
		padnote.WithDevSafety(false),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	ctx := context.Background()
	note, err := app.Registry.Create(ctx, registry.Seed{Text: "buy milk"}, false)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Created note: %s\n", note.ID())
	// Output:
	// Created note: Untitled 1
}

// Example_actions runs tray actions by name, as a forwarded command would.
func Example_actions() {
	dir, err := os.MkdirTemp("", "padnote-actions-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	app, err := padnote.Open(dir, padnote.WithClipboard(&clipboard.Memory{}))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	ctx := context.Background()
	for _, action := range []string{"new note", "New note"} {
		if err := app.Parse(ctx, "--action", action); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Println(app.Registry.IDs())
	// Output:
	// [Untitled 1 Untitled 2]
}
