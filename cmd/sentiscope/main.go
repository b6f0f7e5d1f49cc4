// Command sentiscope serves the sentiment dashboard API and runs one-off
// dashboard queries and pipeline commands against the backend.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/adeilh/sentiscope/dashboard"
	"github.com/adeilh/sentiscope/httpx"
	"github.com/adeilh/sentiscope/sentinews"
	"github.com/adeilh/sentiscope/server"
)

const usage = `usage: sentiscope [-config file] <command> [args]

commands:
  serve                       run the dashboard API server
  overview [-type t] [-sentiment s]
  entity [-type t] <name>
  search <term>
  developer
  trigger [-provider p] [-model m] [-scrapers a,b]
  stop
  schedule <HH:MM>
  watch [-interval d]         poll pipeline status until it is idle
  clear [prefix]              drop cached responses
`

func main() {
	fs := flag.NewFlagSet("sentiscope", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("SENTISCOPE_CONFIG"), "path to the YAML configuration")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, err := newCompositionRoot(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	err = run(ctx, root, fs.Arg(0), fs.Args()[1:], os.Stdout)
	if cerr := root.Close(); cerr != nil {
		root.Logger.Error("Failed to cleanup resources", zap.Error(cerr))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sentiscope %s: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, root *compositionRoot, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "serve":
		return serve(ctx, root)
	case "overview":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		typ := fs.String("type", "all", "entity type: all, company or crypto")
		sentiment := fs.String("sentiment", "positive", "financial sentiment to rank by")
		if err := fs.Parse(args); err != nil {
			return err
		}
		v, err := root.Dashboard().Overview(ctx, dashboard.Filter{Type: *typ, Sentiment: *sentiment})
		return emit(out, v, err)
	case "entity":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		typ := fs.String("type", "", "entity type; guessed from the name when empty")
		if err := fs.Parse(args); err != nil {
			return err
		}
		v, err := root.Dashboard().EntityDetail(ctx, strings.Join(fs.Args(), " "), *typ)
		return emit(out, v, err)
	case "search":
		v, err := root.Dashboard().Search(ctx, strings.Join(args, " "))
		return emit(out, v, err)
	case "developer":
		v, err := root.Dashboard().Developer(ctx)
		return emit(out, v, err)
	case "trigger":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		provider := fs.String("provider", "", "LLM provider: openai or groq")
		model := fs.String("model", "", "model name")
		scrapers := fs.String("scrapers", "", "comma-separated scrapers; empty runs all")
		if err := fs.Parse(args); err != nil {
			return err
		}
		req := sentinews.TriggerRequest{
			Provider:     *provider,
			ModelName:    *model,
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
			GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
			Password:     os.Getenv("SENTISCOPE_PIPELINE_PASSWORD"),
		}
		if *scrapers != "" {
			req.Scrapers = strings.Split(*scrapers, ",")
		}
		v, err := root.API.TriggerPipeline(ctx, req)
		return emit(out, v, err)
	case "stop":
		v, err := root.API.StopPipeline(ctx, sentinews.StopRequest{Password: os.Getenv("SENTISCOPE_PIPELINE_PASSWORD")})
		return emit(out, v, err)
	case "schedule":
		if len(args) != 1 {
			return errors.New("want exactly one HH:MM argument")
		}
		v, err := root.API.ConfigureSchedule(ctx, sentinews.ScheduleRequest{
			ScheduleTime: args[0],
			Password:     os.Getenv("SENTISCOPE_PIPELINE_PASSWORD"),
		})
		return emit(out, v, err)
	case "watch":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		interval := fs.Duration("interval", 5*time.Second, "poll interval")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return root.Dashboard().WatchPipeline(ctx, *interval, func(st *sentinews.PipelineStatus) bool {
			fmt.Fprintf(out, "%s  %s  %d/%d  %s\n",
				time.Now().Format(time.TimeOnly), st.Status, st.Progress, st.Total, st.CurrentTask)
			return st.IsRunning
		})
	case "clear":
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}
		return root.API.Fetcher().ClearCache(ctx, prefix)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, root *compositionRoot) error {
	sc := root.Config.Server
	srv := httpx.NewServer(
		httpx.WithAddress(sc.Address),
		httpx.WithTimeouts(sc.ReadTimeout, sc.WriteTimeout),
		httpx.WithShutdownTimeout(sc.ShutdownTimeout),
		httpx.WithLogger(root.Logger.Named("http")),
		httpx.WithCORS(sc.CORSOrigins...),
	)
	srv.RegisterRoutes(server.New(root.API, root.Logger).Register)

	err := srv.Start(ctx)
	if errors.Is(err, context.Canceled) {
		root.Logger.Info("Server exited")
		return nil
	}
	return err
}

func emit(w io.Writer, v any, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
