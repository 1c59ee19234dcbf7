// Command goomy runs the Goomy conversational responder in a terminal, or
// as a service answering on Matrix and over HTTP.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bdobrica/goomy/common/environment"
	"github.com/bdobrica/goomy/common/spec/topics"
	"github.com/bdobrica/goomy/common/version"
	"github.com/bdobrica/goomy/internal/goomy/analysis"
	"github.com/bdobrica/goomy/internal/goomy/app"
	"github.com/bdobrica/goomy/internal/goomy/memory"
	"github.com/bdobrica/goomy/internal/goomy/observability"
	"github.com/bdobrica/goomy/internal/goomy/session"
)

// envPrefix prefixes every environment variable the CLI reads.
const envPrefix = "GOOMY_"

func main() {
	if err := newRootCmd(environment.New(envPrefix)).Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel   string
	logFormat  string
	topicsFile string
	seed       uint64
	pacing     bool
	memory     memory.Config
}

// usage appends the environment variable backing a flag to its help text.
func usage(env environment.Env, key, text string) string {
	return fmt.Sprintf("%s ($%s)", text, env.Name(key))
}

func newRootCmd(env environment.Env) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:          "goomy",
		Short:        "goomy - a rule-based conversational companion",
		SilenceUsage: true,
	}

	def := memory.DefaultConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", env.StringOr("LOG_LEVEL", "info"), usage(env, "LOG_LEVEL", "log level: debug, info, warn, error"))
	pf.StringVar(&g.logFormat, "log-format", env.StringOr("LOG_FORMAT", "text"), usage(env, "LOG_FORMAT", "log format: text or json"))
	pf.StringVar(&g.topicsFile, "topics", env.StringOr("TOPICS_FILE", ""), usage(env, "TOPICS_FILE", "topic document to use instead of the built-in one"))
	pf.Uint64Var(&g.seed, "seed", env.Uint64Or("SEED", 0), usage(env, "SEED", "random seed for reproducible replies, 0 seeds from the clock"))
	pf.BoolVar(&g.pacing, "pacing", env.BoolOr("PACING", true), usage(env, "PACING", "wait a human-like delay before each reply"))
	pf.IntVar(&g.memory.MaxEntries, "memory-entries", env.IntOr("MEMORY_ENTRIES", def.MaxEntries), usage(env, "MEMORY_ENTRIES", "messages remembered per session"))
	pf.IntVar(&g.memory.MaxHistory, "memory-history", env.IntOr("MEMORY_HISTORY", def.MaxHistory), usage(env, "MEMORY_HISTORY", "topics kept in the context history"))
	pf.IntVar(&g.memory.MaxTechnical, "memory-technical", env.IntOr("MEMORY_TECHNICAL", def.MaxTechnical), usage(env, "MEMORY_TECHNICAL", "technical notes kept per topic"))

	root.AddCommand(
		newChatCmd(g),
		newServeCmd(g, env),
		newValidateCmd(),
		newClassifyCmd(g),
		newVersionCmd(),
	)
	return root
}

func newChatCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with Goomy in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := observability.Setup(observability.Options{
				Level:  g.logLevel,
				Format: g.logFormat,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			tc, err := app.LoadTopics(g.topicsFile)
			if err != nil {
				return err
			}

			cfg := app.Config{Pacing: g.pacing, Seed: g.seed, Memory: g.memory}
			sess := session.New("terminal", app.SessionOptions(cfg, tc, nil, logger))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Chat(ctx, sess, tc.IDs(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newServeCmd(g *globalFlags, env environment.Env) *cobra.Command {
	cfg := app.Config{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer on Matrix and over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Matrix.Enabled() {
				token, err := env.Required("MATRIX_ACCESS_TOKEN")
				if err != nil {
					return err
				}
				cfg.Matrix.AccessToken = token
			}
			cfg.TopicsFile = g.topicsFile
			cfg.Pacing = g.pacing
			cfg.Seed = g.seed
			cfg.Memory = g.memory

			logger, err := observability.Setup(observability.Options{
				Level:   g.logLevel,
				Format:  g.logFormat,
				Output:  cmd.ErrOrStderr(),
				Secrets: []string{cfg.Matrix.AccessToken},
			})
			if err != nil {
				return err
			}
			logger.Info("starting", "build", version.Info())

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.DBPath, "db", env.StringOr("DB_PATH", "./goomy.db"), usage(env, "DB_PATH", "SQLite database for the turn audit log, empty disables it"))
	f.StringVar(&cfg.HTTPAddr, "http-addr", env.StringOr("HTTP_ADDR", ":8080"), usage(env, "HTTP_ADDR", "HTTP API listen address, empty disables it"))
	f.StringVar(&cfg.Matrix.Homeserver, "matrix-homeserver", env.StringOr("MATRIX_HOMESERVER", ""), usage(env, "MATRIX_HOMESERVER", "Matrix homeserver URL, empty disables Matrix"))
	f.StringVar(&cfg.Matrix.UserID, "matrix-user", env.StringOr("MATRIX_USER_ID", ""), usage(env, "MATRIX_USER_ID", "Matrix user ID"))
	f.StringSliceVar(&cfg.Matrix.Rooms, "matrix-rooms", env.StringsOr("MATRIX_ROOMS", nil), usage(env, "MATRIX_ROOMS", "Matrix rooms to chat in"))
	f.DurationVar(&cfg.IdleTTL, "session-idle", env.DurationOr("SESSION_IDLE", session.DefaultRegistryConfig().IdleTTL), usage(env, "SESSION_IDLE", "drop sessions idle for this long"))
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [topics.yaml]",
		Short: "Check a topic document, or the built-in one when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tc  *topics.Config
				err error
			)
			name := "built-in topics"
			if len(args) == 1 {
				name = args[0]
				tc, err = topics.Load(name)
			} else {
				tc, err = topics.Default()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d topics: %v)\n", name, len(tc.Topics), tc.IDs())
			return nil
		},
	}
}

// newClassifyCmd shows how the topic document ranks a message, which is
// what tuning keyword lists needs.
func newClassifyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>...",
		Short: "Show the topics a message is classified into",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tc, err := app.LoadTopics(g.topicsFile)
			if err != nil {
				return err
			}
			matches := analysis.New(tc).Classify(strings.Join(args, " "))

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "no topic")
				return nil
			}
			for _, m := range matches {
				fmt.Fprintf(out, "%s\tconfidence=%.2f\tspecific=%d\tmatched=%v\n",
					m.Topic, m.Confidence, m.SpecificMatches, m.MatchedKeywords)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
