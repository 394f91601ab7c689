// Command randomtei is a TEI engine playing random legal moves.
package main

import (
	"os"
	"runtime"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ChizhovVadim/takmatch/internal/logging"
	"github.com/ChizhovVadim/takmatch/pkg/tei"
)

const (
	name   = "randomtei"
	author = "takmatch"
)

var versionName = "dev"

func main() {
	var seed = pflag.Int64("seed", 0, "random seed, 0 uses the clock")
	var verbose = pflag.BoolP("verbose", "v", false, "log commands to stderr")
	pflag.Parse()

	var logger, closeLog, err = logging.New(logging.Options{Verbose: *verbose})
	if err != nil {
		os.Exit(1)
	}
	defer closeLog()

	logger.Debug(name,
		zap.String("version", versionName),
		zap.String("runtime", runtime.Version()))

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	var server = tei.NewServer(name+" "+versionName, author, tei.NewRandomEngine(*seed), nil, logger)
	server.Run(os.Stdin, os.Stdout)
}
