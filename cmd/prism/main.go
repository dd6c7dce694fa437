package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prism-xos/prism-core/internal/app"
	"github.com/prism-xos/prism-core/internal/config"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: prism <command> [args]

commands:
  status                      show storage locations, media and models
  import <file> <seconds>     register a media file and print its id
  reset <media-id>            drop recognized subtitles and rewind progress
  clear-cache                 empty the audio cache
  export <media-id> <locale>  write stored subtitles as SRT into the exports directory
  janitor                     trim the audio cache and checkpoint the database until interrupted
`)
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)

	name, args := flag.Arg(0), flag.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	env := &environment{cfg: cfg, logger: logger, out: os.Stdout}
	os.Exit(app.Run(name, logger, func(ctx context.Context) error {
		return cmd(ctx, env, args)
	}))
}
