package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdcms/cmd/mdcms/commands"
	"git.home.luguber.info/inful/mdcms/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("mdcms"),
		kong.Description("Markdown editing service and structural editing tools."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	global := &commands.Global{Out: os.Stdout, Level: cli.Level()}
	parser.FatalIfErrorf(parser.Run(global, cli))
}
