package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/YashGondaliya36/Agentic-AI/internal/config"
	"github.com/YashGondaliya36/Agentic-AI/internal/corpus"
	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
	"github.com/YashGondaliya36/Agentic-AI/internal/providers"
	"github.com/YashGondaliya36/Agentic-AI/internal/research"
	"github.com/YashGondaliya36/Agentic-AI/internal/store"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	ctx := context.Background()

	fs := flag.NewFlagSet("research", flag.ExitOnError)
	topicFlag := fs.String("topic", "", "Research topic (omit for interactive mode)")
	attemptsFlag := fs.Int("attempts", 0, "Max produce attempts per run (default from config)")
	thresholdFlag := fs.Float64("threshold", 0, "Quality score that ends the loop early (0-10)")
	timeoutFlag := fs.Duration("timeout", 0, "Per-model-call timeout (e.g. 90s)")
	corpusFlag := fs.String("corpus", "", "Directory of local documents to research from instead of a model")
	historyFlag := fs.Bool("history", false, "List past runs and exit")
	verboseFlag := fs.Bool("verbose", false, "Log every loop stage transition")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	if err := run(ctx, runOptions{
		topic:     *topicFlag,
		attempts:  *attemptsFlag,
		threshold: *thresholdFlag,
		timeout:   *timeoutFlag,
		corpus:    *corpusFlag,
		history:   *historyFlag,
		verbose:   *verboseFlag,
	}); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

type runOptions struct {
	topic     string
	attempts  int
	threshold float64
	timeout   time.Duration
	corpus    string
	history   bool
	verbose   bool
}

func run(ctx context.Context, opts runOptions) error {
	mgr, err := config.NewManager()
	if err != nil {
		return err
	}
	fileCfg, err := mgr.Load()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(mgr.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	runs, err := store.Open(ctx, filepath.Join(mgr.DataDir(), "runs.db"))
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer runs.Close()

	if opts.history {
		return printHistory(ctx, runs)
	}

	loopCfg := buildLoopConfig(fileCfg, opts)
	collab, closer, err := buildCollaborators(fileCfg, opts)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	if opts.topic != "" {
		return runOnce(ctx, collab, runs, loopCfg, opts.topic, opts.verbose)
	}

	// Interactive mode: one run per line of input.
	s := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("topic> ")
		if !s.Scan() {
			break
		}
		topic := strings.TrimSpace(s.Text())
		if topic == "" {
			continue
		}
		if topic == "exit" || topic == "quit" {
			break
		}
		if err := runOnce(ctx, collab, runs, loopCfg, topic, opts.verbose); err != nil {
			log.Printf("run failed: %v", err)
		}
		fmt.Println()
	}
	return s.Err()
}

// buildLoopConfig layers flags over file config over the built-in defaults.
func buildLoopConfig(fileCfg *config.Config, opts runOptions) loop.Config {
	cfg := loop.DefaultConfig()
	if fileCfg.AttemptLimit > 0 {
		cfg.AttemptLimit = fileCfg.AttemptLimit
	}
	if fileCfg.SufficiencyThreshold > 0 {
		cfg.SufficiencyThreshold = fileCfg.SufficiencyThreshold
	}
	if fileCfg.NeutralScore > 0 {
		cfg.NeutralScore = fileCfg.NeutralScore
	}
	if fileCfg.CallTimeoutSeconds > 0 {
		cfg.CallTimeout = time.Duration(fileCfg.CallTimeoutSeconds) * time.Second
	}
	if opts.attempts > 0 {
		cfg.AttemptLimit = opts.attempts
	}
	if opts.threshold > 0 {
		cfg.SufficiencyThreshold = opts.threshold
	}
	if opts.timeout > 0 {
		cfg.CallTimeout = opts.timeout
	}
	return cfg
}

// buildCollaborators wires the producer, scorer, and writer. With -corpus the
// producer draws from the local document index; the scorer and writer still
// need a model either way.
func buildCollaborators(fileCfg *config.Config, opts runOptions) (loop.Collaborators, func(), error) {
	applyConfigEnv(fileCfg)

	client, modelName, err := providers.NewChatClientFromEnv()
	if err != nil {
		return loop.Collaborators{}, nil, err
	}
	log.Printf("using model %s", modelName)

	collab := loop.Collaborators{
		Producer:  research.NewNotesProducer(client),
		Scorer:    research.NewQualityScorer(client),
		Finalizer: research.NewReportWriter(client),
	}

	corpusRoot := opts.corpus
	if corpusRoot == "" {
		corpusRoot = fileCfg.CorpusRoot
	}
	if corpusRoot == "" {
		return collab, nil, nil
	}

	walker, err := corpus.NewWalker(corpusRoot)
	if err != nil {
		return loop.Collaborators{}, nil, err
	}
	index, err := corpus.Open(corpusRoot)
	if err != nil {
		return loop.Collaborators{}, nil, err
	}
	n, err := index.Rebuild(walker)
	if err != nil {
		index.Close()
		return loop.Collaborators{}, nil, err
	}
	log.Printf("corpus ready: %d documents indexed from %s", n, corpusRoot)

	watcher, err := corpus.NewWatcher(corpusRoot, walker, index)
	if err != nil {
		index.Close()
		return loop.Collaborators{}, nil, err
	}
	if err := watcher.Start(); err != nil {
		index.Close()
		return loop.Collaborators{}, nil, err
	}

	collab.Producer = research.NewCorpusProducer(index)
	closer := func() {
		watcher.Stop()
		index.Close()
	}
	return collab, closer, nil
}

// applyConfigEnv exports file-config provider settings as env vars so the
// provider factory sees them. Existing env vars win.
func applyConfigEnv(fileCfg *config.Config) {
	set := func(key, val string) {
		if val != "" && os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
	set("LLM_PROVIDER", fileCfg.LLMProvider)
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "openai"
	}
	prefix := strings.ToUpper(provider)
	set(prefix+"_API_KEY", fileCfg.APIKey)
	set(prefix+"_MODEL", fileCfg.Model)
	set(prefix+"_BASE_URL", fileCfg.BaseURL)
}

// runOnce drives one refinement run and persists the outcome.
func runOnce(ctx context.Context, collab loop.Collaborators, runs *store.Store, cfg loop.Config, topic string, verbose bool) error {
	task := loop.NewTask(topic)

	events := make(chan loop.Event, 64)
	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		renderEvents(events)
	}()

	hooks := loop.Hooks{loop.EventHook{Ch: events}}
	if verbose {
		hooks = append(hooks, loop.LoggerHook{L: log.Default()})
	}
	res, runErr := loop.Run(ctx, collab, task, hooks, cfg)
	close(events)
	<-renderDone

	if err := persistRun(ctx, runs, task, res); err != nil {
		log.Printf("failed to save run: %v", err)
	}

	if runErr != nil {
		return runErr
	}

	fmt.Println()
	fmt.Println(res.Output)
	if !res.ReachedSufficiency {
		fmt.Printf("\n(attempt budget reached without a sufficient draft; best effort after %d attempts)\n", res.AttemptsUsed)
	}
	return nil
}

// renderEvents prints loop progress as it happens. Stage-level detail is left
// to the LoggerHook attached in verbose mode.
func renderEvents(events <-chan loop.Event) {
	for ev := range events {
		switch ev.Kind {
		case "produce":
			log.Printf("drafted notes: %v", ev.Data)
		case "produce_degraded":
			log.Printf("draft failed, continuing: %v", ev.Data)
		case "score":
			log.Printf("scored: %v", ev.Data)
		case "score_degraded":
			log.Printf("scoring failed, using neutral score: %v", ev.Data)
		case "retry_attempt":
			log.Printf("transient provider error, retrying: %v", ev.Data)
		case "failed":
			log.Printf("run failed: %v", ev.Data)
		}
	}
}

func persistRun(ctx context.Context, runs *store.Store, task *loop.Task, res loop.Result) error {
	rec := &store.RunRecord{
		ID:                 task.ID,
		Subject:            task.Subject,
		Status:             string(res.Status),
		AttemptsUsed:       res.AttemptsUsed,
		QualityScore:       task.QualityScore,
		ReachedSufficiency: res.ReachedSufficiency,
		Output:             res.Output,
	}
	if res.Reason != nil {
		rec.Reason = res.Reason.Error()
	}
	if res.Status == "" {
		rec.Status = string(loop.StatusFailed)
	}
	for _, a := range task.Artifacts {
		rec.Artifacts = append(rec.Artifacts, store.ArtifactRecord{
			Attempt:  a.Attempt,
			Payload:  a.Payload,
			Degraded: a.Degraded,
		})
	}
	return runs.Save(ctx, rec)
}

func printHistory(ctx context.Context, runs *store.Store) error {
	metas, err := runs.List(ctx, 50)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no runs yet")
		return nil
	}
	for _, m := range metas {
		marker := " "
		if m.ReachedSufficiency {
			marker = "*"
		}
		fmt.Printf("%s %s  %-6s  score=%.1f  attempts=%d  %s\n",
			marker, m.CreatedAt.Format("2006-01-02 15:04"), m.Status, m.QualityScore, m.AttemptsUsed, m.Subject)
	}
	return nil
}
