package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/channelauth/internal/admin"
)

func main() {
	app := admin.NewApp(os.Stdin, os.Stdout, nil)
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		if !errors.Is(err, admin.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
