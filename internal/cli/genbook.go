package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChizhovVadim/takmatch/internal/logging"
	"github.com/ChizhovVadim/takmatch/internal/openings"
)

func newGenbookCommand() *cobra.Command {
	var opts openings.GenerateOptions
	var output string
	var cmd = &cobra.Command{
		Use:   "genbook",
		Short: "Generate an opening book of random balanced move sequences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var logger, closeLog, err = logging.New(logging.Options{})
			if err != nil {
				return err
			}
			defer closeLog()
			if opts.Seed == 0 {
				opts.Seed = time.Now().UnixNano()
			}
			book, err := openings.Generate(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}
			if len(book) < opts.Count {
				logger.Warn("too few distinct openings", zap.Int("count", len(book)))
			}
			var out = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return openings.Write(out, book)
		},
	}
	var flags = cmd.Flags()
	flags.IntVar(&opts.Size, "size", 5, "board size")
	flags.IntVar(&opts.Plies, "plies", 4, "moves per opening")
	flags.IntVarP(&opts.Count, "count", "n", 100, "number of openings")
	flags.Int64Var(&opts.Seed, "seed", 0, "random seed, 0 uses the clock")
	flags.IntVar(&opts.MaxFlatDiff, "max-flat-diff", 1, "largest flat count lead allowed at the end of the opening")
	flags.StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}
