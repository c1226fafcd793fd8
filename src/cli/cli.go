// Package cli is the command line surface: one cobra root command, `jcc <source>`, whose flags build a
// compiler.Config and hand it to compiler.Run. Flag parsing, usage printing and -h/--help are cobra's;
// this package only validates the one flag cobra can't validate itself (-O must be 0-3) and wires
// verbose logging and color decisions around the compiler.Run call.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jcc/src/compiler"
)

var log = logrus.New()

func newRootCmd(color bool) *cobra.Command {
	cfg := compiler.Config{}
	var optLevel int
	var compileFlag bool

	cmd := &cobra.Command{
		Use:   "jcc <source>",
		Short: "jcc compiles a single translation unit to a native object file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if optLevel < 0 || optLevel > 3 {
				return fmt.Errorf("invalid -O %d: must be 0, 1, 2 or 3", optLevel)
			}
			cfg.Source = args[0]
			cfg.OptLevel = optLevel
			cfg.Color = color

			if cfg.Verbose {
				log.SetLevel(logrus.DebugLevel)
			} else {
				log.SetLevel(logrus.WarnLevel)
			}
			log.WithFields(logrus.Fields{"phase": "cli", "file": cfg.Source}).Debug("starting compilation")

			err := compiler.Run(cfg)
			if err != nil {
				log.WithFields(logrus.Fields{"phase": "cli", "file": cfg.Source}).Debug("compilation failed")
			}
			return err
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.BoolVarP(&compileFlag, "compile", "c", true, "compile to a native object file (currently the only mode)")
	flags.StringVarP(&cfg.Output, "output", "o", compiler.DefaultOutput, "output file path")
	flags.StringArrayVarP(&cfg.Includes, "include", "I", nil, "add a directory to the preprocessor's include search path")
	flags.IntVarP(&optLevel, "optimization-level", "O", compiler.DefaultOptLevel, "optimization level, 0-3")
	flags.BoolVar(&cfg.OutputMIR, "output-mir", false, "dump the mid-level IR instead of emitting an object file")
	flags.BoolVar(&cfg.OutputLLVMIR, "output-llvm-ir", false, "dump textual LLVM IR instead of emitting an object file")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log pipeline progress to stderr")
	flags.IntVar(&cfg.Threads, "threads", 1, "worker goroutines for per-function analysis passes")

	return cmd
}

// Execute runs the root command and returns the process exit code: 0 on success, -1 (which os.Exit
// truncates to 255) on any error.
func Execute() int {
	useColor := term.IsTerminal(int(os.Stderr.Fd()))
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: !useColor, FullTimestamp: false})

	if err := newRootCmd(useColor).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return -1
	}
	return 0
}
