package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/tradefin"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	varHome     *string
	varLogLevel *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".tradefin")
	varHome = flag.String("home", env("TRADEFIN_HOME", defaultHome), "directory to store files under")
	varLogLevel = flag.String("log-level", env("TRADEFIN_LOG_LEVEL", "info"), "log level: debug, info, error or none")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Println("tradefind")
	fmt.Println("          Trade finance escrow service")
	fmt.Println("")
	fmt.Println("help      Print this message")
	fmt.Println("init      Write the genesis file")
	fmt.Println("start     Run the HTTP API server")
	fmt.Println("token     Issue an access token for given subject")
	fmt.Println("version   Print the app version")
	fmt.Println(`
  -home string
        directory to store files under (default "$HOME/.tradefin", env TRADEFIN_HOME)
  -log-level string
        log level (default "info", env TRADEFIN_LOG_LEVEL)`)
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	logger, err := newLogger(*varLogLevel)
	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = InitCmd(logger, *varHome, rest)
	case "start":
		err = StartCmd(logger, *varHome, rest)
	case "token":
		err = TokenCmd(os.Stdout, rest)
	case "version":
		fmt.Println(weave.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
}

func newLogger(level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).With("module", "tradefin")
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(logger, opt), nil
}

// env returns the value of the environment variable or the fallback if not
// set.
func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
