package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

func main() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Fprintln(os.Stderr, "rampart: interrupted - system configuration may be partially updated")
		os.Exit(1)
	}()

	ctx := kong.Parse(&cli,
		kong.Name("rampart"),
		kong.Description("Enroll a TPM2 as an automatic unlock factor for a LUKS volume"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if errors.Is(err, errAborted) {
		os.Exit(1)
	}
	ctx.FatalIfErrorf(err)
}
