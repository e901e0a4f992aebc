package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"

	"github.com/handiism/mp3order/internal/config"
	"github.com/handiism/mp3order/internal/engine"
	ioutils "github.com/handiism/mp3order/internal/io"
	"github.com/handiism/mp3order/internal/mirror"
	"github.com/handiism/mp3order/internal/model"
	"github.com/handiism/mp3order/internal/naming"
	"github.com/handiism/mp3order/internal/reorder"
)

// Exit codes
const (
	exitOK         = 0
	exitUnverified = 1
	exitError      = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// Command line flags
	var (
		dirFlag      = flag.String("dir", "", "Directory to reorder (overrides config)")
		mirrorFlag   = flag.String("mirror", "", "Mirror directory (overrides config)")
		configFlag   = flag.String("config", config.DefaultPath(), "Path to config file")
		orderFlag    = flag.String("order", "", "Track names in play order, comma-separated, or @file with one name per line")
		extFlag      = flag.String("ext", "", "Tracked file extension (overrides config)")
		playlistFlag = flag.Bool("playlist", false, "Create playlist file")
		tagsFlag     = flag.Bool("tags", false, "Rewrite ID3 track numbers to match the new order")
		checkFlag    = flag.Bool("check", false, "Only report whether the directory plays in name order")
		syncFlag     = flag.Bool("sync", false, "Only mirror the directory")
		verboseFlag  = flag.Bool("verbose", false, "Show verbose output")
		dryRunFlag   = flag.Bool("dry-run", false, "Print the new names without renaming")
	)

	flag.Parse()

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitError
	}

	// Apply flags
	if *dirFlag != "" {
		settings.WorkDir = *dirFlag
	} else if flag.NArg() > 0 {
		settings.WorkDir = flag.Arg(0)
	}
	if *mirrorFlag != "" {
		settings.MirrorDir = *mirrorFlag
	}
	if *extFlag != "" {
		settings.Extension = "." + strings.TrimPrefix(*extFlag, ".")
	}
	if *playlistFlag {
		settings.CreatePlaylist = true
	}
	if *tagsFlag {
		settings.SyncTags = true
	}

	if settings.WorkDir == "" {
		fmt.Println("mp3order - fix the play order of music on USB sticks and SD cards")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  mp3order [options] <dir>")
		fmt.Println()
		fmt.Println("For interactive mode, use: mp3order-tui")
		fmt.Println()
		flag.PrintDefaults()
		return exitError
	}

	if *checkFlag {
		return check(settings)
	}

	// Handle interrupts
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var bar *progressbar.ProgressBar
	onMirror := func(p mirror.Progress) {
		if bar == nil {
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetDescription("Mirroring"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(p.Done)
	}

	eng := engine.New(settings, func(event engine.ProgressEvent) {
		if event.Level == engine.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := ""
		switch event.Level {
		case engine.LevelError:
			prefix = "❌ "
		case engine.LevelWarning:
			prefix = "⚠️  "
		case engine.LevelSuccess:
			prefix = "✅ "
		case engine.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	}, engine.WithMirrorProgress(onMirror))

	if *syncFlag {
		if eng.MirrorDir() == "" {
			fmt.Fprintln(os.Stderr, "Error: no mirror directory configured")
			return exitError
		}
		if _, err := eng.Sync(ctx); err != nil {
			return exitError
		}
		return exitOK
	}

	folder, err := eng.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading directory: %v\n", err)
		return exitError
	}

	if *orderFlag != "" {
		names, err := parseOrder(*orderFlag, settings.Extension)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading order: %v\n", err)
			return exitError
		}
		if err := folder.Reorder(names); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
	}

	if *dryRunFlag {
		printPlan(folder)
		return exitOK
	}

	res, err := eng.Apply(ctx, folder.Tracks)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		var ce *engine.CollisionError
		if errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "Rename a track first: %q is already taken.\n", ce.To)
		}
		return exitError
	}

	if res.Warning() != nil {
		return exitUnverified
	}
	return exitOK
}

// parseOrder reads names from a comma-separated list or, with a leading @,
// from a file with one name per line. The tracked extension is optional.
func parseOrder(arg, ext string) ([]string, error) {
	var raw []string
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = strings.Split(string(data), "\n")
	} else {
		raw = strings.Split(arg, ",")
	}

	var names []string
	for _, n := range raw {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if ioutils.HasExt(n, ext) {
			n = strings.TrimSuffix(n, filepath.Ext(n))
		}
		names = append(names, n)
	}
	return names, nil
}

func printPlan(folder *model.Folder) {
	for i, t := range folder.Tracks {
		canonical, ok := naming.Canonicalize(ioutils.SanitizeFileName(t.Label), i+1)
		switch {
		case !ok:
			fmt.Printf("   %s (kept)\n", t.FileName())
		case canonical == t.Name:
			fmt.Printf("   %s\n", t.FileName())
		default:
			fmt.Printf("   %s -> %s\n", t.FileName(), canonical+t.Ext)
		}
	}
}

func check(settings *config.Settings) int {
	ok, err := reorder.New(ioutils.NewOS(), settings.Extension).IsOrdered(settings.WorkDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	if !ok {
		fmt.Println("⚠️  Directory does not play in name order")
		return exitUnverified
	}
	fmt.Println("✅ Directory plays in name order")
	return exitOK
}
