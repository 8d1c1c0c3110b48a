package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pitchside/tacticsboard/internal/api"
	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/internal/cache"
	"github.com/pitchside/tacticsboard/internal/config"
	"github.com/pitchside/tacticsboard/internal/dispatcher"
	"github.com/pitchside/tacticsboard/internal/formation"
	"github.com/pitchside/tacticsboard/internal/gesture"
	"github.com/pitchside/tacticsboard/internal/history"
	"github.com/pitchside/tacticsboard/internal/link"
	"github.com/pitchside/tacticsboard/internal/logging"
	intOtel "github.com/pitchside/tacticsboard/internal/otel"
	"github.com/pitchside/tacticsboard/internal/render"
	"github.com/pitchside/tacticsboard/internal/squad"
	"github.com/pitchside/tacticsboard/internal/storage"
	"github.com/pitchside/tacticsboard/internal/telemetry"
	"github.com/pitchside/tacticsboard/internal/timeline"
	"github.com/pitchside/tacticsboard/internal/worker"
	"github.com/pitchside/tacticsboard/pkg/core"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate can be set at build time via ldflags.
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	AppName string = "tacticsboard"
)

// board slots. The main board is bound to the video transport; the
// presentation board is a free drawing surface replicated from it.
const (
	mainBoard         = "main"
	presentationBoard = "presentation"
)

var (
	SessionStartTime time.Time = time.Now()

	WorkDir     string
	LogFilePath string
	LogFile     *os.File

	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// engine
	bus         *history.Bus
	boardSync   *link.Synchronizer
	marks       *timeline.Index
	transport   *timeline.ManualTransport
	catalog     *formation.Catalog
	roster      *squad.Roster
	exporter    *render.Exporter
	sceneCache  *cache.SceneCache
	controllers map[string]*gesture.Controller

	// services
	eventDispatcher  *dispatcher.Dispatcher
	storageBackend   storage.Backend
	telemetryManager *telemetry.Manager
	maintenance      *worker.Manager
	frontend         *api.Client
)

func setup() error {
	var err error

	WorkDir, err = os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(io.Discard, nil, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	err = config.Load(WorkDir)
	if err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}

	LogFilePath = filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", AppName, SessionStartTime.Format("20060102_150405")))
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    LogFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", LogFilePath)
		}
	}

	var graylog io.Writer
	if viper.GetBool("graylog.enabled") {
		gw, err := logging.NewGraylogWriter(viper.GetString("graylog.address"))
		if err != nil {
			Logger.Error("Failed to connect Graylog writer", "error", err, "address", viper.GetString("graylog.address"))
		} else {
			graylog = gw
		}
	}

	// Re-setup logging with file output and optional sinks
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(LogFile, graylog, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath)

	return setupEngine()
}

// setupEngine assembles the history bus, board slots, catalog, roster
// and the per-board gesture controllers.
func setupEngine() error {
	// stamp every log record with the engine state it was emitted under;
	// the closure reads the globals so it survives the setup ordering below
	SlogManager.SetContextProvider(func() []slog.Attr {
		if bus == nil || transport == nil {
			return nil
		}
		version, _ := bus.Version(mainBoard)
		return []slog.Attr{
			slog.Uint64("boardVersion", version),
			slog.Float64("clock", transport.CurrentClock()),
		}
	})
	Logger = SlogManager.Logger()

	bus = history.NewBus(Logger)
	bus.AddBoard(mainBoard, core.ModeReal)
	bus.AddBoard(presentationBoard, core.ModeVirtual)

	boardSync = link.New(bus, Logger)
	boardSync.SetConflictHandler(func(c link.Conflict) {
		Logger.Warn("Replication conflict, link disabled",
			"primary", c.Primary, "secondary", c.Secondary, "error", c.Err)
	})
	boardSync.Link(mainBoard, presentationBoard)

	marks = timeline.NewIndex(Logger)
	transport = timeline.NewManualTransport()

	catalog = formation.NewCatalog()
	if path := viper.GetString("formationsFile"); path != "" {
		if err := catalog.LoadFile(path); err != nil {
			Logger.Warn("Failed to load formations file", "error", err, "path", path)
		} else {
			Logger.Info("Loaded formations file", "path", path, "formations", len(catalog.Names()))
		}
	}

	if path := viper.GetString("rosterFile"); path != "" {
		r, err := squad.Load(path)
		if err != nil {
			Logger.Warn("Failed to load roster file", "error", err, "path", path)
		} else {
			roster = r
			Logger.Info("Loaded roster file", "path", path, "players", r.Len())
		}
	}

	themeCfg := config.GetThemeConfig()
	exporter = render.NewExporter(render.Theme{
		HomeColor:    themeCfg.HomeColor,
		AwayColor:    themeCfg.AwayColor,
		NeutralColor: themeCfg.NeutralColor,
		StrokeColor:  themeCfg.StrokeColor,
		ZoneColor:    themeCfg.ZoneColor,
	})

	sceneCache = cache.NewSceneCache()

	gridCfg := config.GetGridConfig()
	gcfg := gesture.Config{
		GridSpacing:           gridCfg.Spacing,
		SnapEnabled:           gridCfg.SnapEnabled,
		PathEpsilon:           gridCfg.PathEpsilon,
		HitRadius:             gridCfg.HitRadius,
		AllowDrawWhilePlaying: gridCfg.AllowDrawWhilePlaying,
	}
	controllers = map[string]*gesture.Controller{
		mainBoard:         gesture.NewController(mainBoard, bus, transport, gcfg, Logger),
		presentationBoard: gesture.NewController(presentationBoard, bus, nil, gcfg, Logger),
	}

	return setupServices()
}

// setupServices wires the storage backend, telemetry manager and the
// intent dispatcher.
func setupServices() error {
	zlog := zerolog.New(LogFile).With().Timestamp().Logger()

	backend, err := storage.NewBackend(config.GetStorageConfig(), zlog)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to init storage backend: %w", err)
	}
	storageBackend = backend
	Logger.Info("Storage backend initialized", "type", config.GetStorageConfig().Type)

	if viper.GetBool("influx.enabled") {
		backupPath := filepath.Join(viper.GetString("logsDir"),
			fmt.Sprintf("%s.%s.lp.gz", AppName, SessionStartTime.Format("20060102_150405")))
		telemetryManager = telemetry.NewManager(zlog, backupPath)
		if err := telemetryManager.Connect(); err != nil {
			Logger.Warn("Telemetry unavailable, points go to backup file", "error", err, "backup", backupPath)
		} else {
			Logger.Info("Telemetry connected")
		}
		bus.OnCommit(func(boardID string, cmd board.Command, version uint64) {
			bucket, point := telemetry.CommandPoint(boardID, string(cmd.Kind()), version, time.Now())
			if err := telemetryManager.WritePoint(context.Background(), bucket, point); err != nil {
				Logger.Debug("Dropped telemetry point", "error", err)
			}
		})
	}

	maintenance = worker.NewManager(Logger)
	storageCfg := config.GetStorageConfig()
	if dumper, ok := storageBackend.(interface{ DumpToDisk() error }); ok && storageCfg.SQLite.DumpInterval > 0 {
		maintenance.Add(worker.Job{
			Name:     "db-dump",
			Interval: storageCfg.SQLite.DumpInterval,
			Run:      dumper.DumpToDisk,
		})
	}
	maintenance.Start()

	if serverURL := viper.GetString("api.serverUrl"); serverURL != "" {
		frontend = api.New(serverURL, viper.GetString("api.apiKey"))
		go func() {
			if err := frontend.Healthcheck(); err != nil {
				Logger.Info("Board frontend is offline", "url", serverURL)
			} else {
				Logger.Info("Board frontend is online", "url", serverURL)
			}
		}()
	}

	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	registerIntentHandlers(eventDispatcher)
	bus.OnCommit(func(boardID string, cmd board.Command, version uint64) {
		eventDispatcher.RecordCommit(boardID, string(cmd.Kind()))
	})
	Logger.Info("Dispatcher initialized with intent handlers")

	return nil
}

func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if maintenance != nil {
		maintenance.Stop()
	}
	if telemetryManager != nil {
		if err := telemetryManager.Close(); err != nil {
			Logger.Warn("Failed to close telemetry manager", "error", err)
		}
	}
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Warn("Failed to close storage backend", "error", err)
		}
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if err := SlogManager.Flush(ctx); err != nil {
		Logger.Warn("Failed to flush logs", "error", err)
	}
	if LogFile != nil {
		LogFile.Close()
	}
}

func usage() {
	fmt.Println("usage: tacticsboard <command> [args]")
	fmt.Println()
	fmt.Println("  demo                       seed both boards with demo content, save and export it")
	fmt.Println("  sessions                   list saved sessions")
	fmt.Println("  export <session> [file]    render a saved session to a scene JSON file")
	fmt.Println("  replay <file>              replay a command log onto the main board")
	fmt.Println("  upload <session>           export a session and upload it to the web frontend")
	fmt.Println("  delete <session>           delete a saved session")
	fmt.Println("  version                    print version and build date")
}

func main() {
	err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer teardown()
	Logger.Info("Starting up...", "version", CurrentVersion, "build", BuildDate)

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		return
	}

	switch strings.ToLower(args[0]) {
	case "demo":
		Logger.Info("Populating demo data...")
		demoStart := time.Now()
		err = populateDemoData()
		if err == nil {
			Logger.Info("Demo data populated.", "duration", time.Since(demoStart))
			fmt.Println("Demo session complete in", time.Since(demoStart))
		}
	case "sessions":
		err = listSessions()
	case "export":
		if len(args) < 2 {
			err = fmt.Errorf("no session name provided")
			break
		}
		outFile := ""
		if len(args) > 2 {
			outFile = args[2]
		}
		err = exportSession(args[1], outFile)
	case "replay":
		if len(args) < 2 {
			err = fmt.Errorf("no command log provided")
			break
		}
		err = replayLog(args[1])
	case "upload":
		if len(args) < 2 {
			err = fmt.Errorf("no session name provided")
			break
		}
		err = uploadSession(args[1])
	case "delete":
		if len(args) < 2 {
			err = fmt.Errorf("no session name provided")
			break
		}
		err = storageBackend.DeleteSession(args[1])
		if err == nil {
			fmt.Println("Deleted session", args[1])
		}
	case "version":
		fmt.Println(AppName, CurrentVersion, BuildDate)
	default:
		usage()
	}

	if err != nil {
		Logger.Error("Command failed", "command", args[0], "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		os.Exit(1)
	}
}

// registerIntentHandlers binds the engine operations to named intents.
// The presentation shell drives the engine exclusively through these.
func registerIntentHandlers(d *dispatcher.Dispatcher) {
	d.Register("board:undo", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 1 {
			return nil, fmt.Errorf("board:undo requires a board id")
		}
		status, err := bus.Undo(e.Args[0])
		if err != nil {
			return nil, err
		}
		d.RecordHistoryOp(e.Args[0], "undo", status.String())
		return status.String(), nil
	})

	d.Register("board:redo", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 1 {
			return nil, fmt.Errorf("board:redo requires a board id")
		}
		status, err := bus.Redo(e.Args[0])
		if err != nil {
			return nil, err
		}
		d.RecordHistoryOp(e.Args[0], "redo", status.String())
		return status.String(), nil
	})

	d.Register("board:erase", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 3 {
			return nil, fmt.Errorf("board:erase requires board, x, y")
		}
		ctl, ok := controllers[e.Args[0]]
		if !ok {
			return nil, fmt.Errorf("unknown board %q", e.Args[0])
		}
		p, err := parsePoint(e.Args[1], e.Args[2])
		if err != nil {
			return nil, err
		}
		return ctl.EraseAt(p)
	})

	d.Register("formation:apply", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 3 {
			return nil, fmt.Errorf("formation:apply requires board, side, formation")
		}
		return catalog.Apply(bus, e.Args[0], core.Side(e.Args[1]), e.Args[2], sidePlayers(core.Side(e.Args[1])))
	})

	d.Register("link:set", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 3 {
			return nil, fmt.Errorf("link:set requires primary, secondary, on|off")
		}
		if strings.EqualFold(e.Args[2], "on") {
			boardSync.Link(e.Args[0], e.Args[1])
		} else {
			boardSync.Unlink(e.Args[0], e.Args[1])
		}
		return boardSync.Enabled(e.Args[0], e.Args[1]), nil
	})

	d.Register("scene:get", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 1 {
			return nil, fmt.Errorf("scene:get requires a board id")
		}
		boardID := e.Args[0]
		version, err := bus.Version(boardID)
		if err != nil {
			return nil, err
		}
		if s, ok := sceneCache.Get(boardID, version); ok {
			return s, nil
		}
		doc, err := bus.Board(boardID)
		if err != nil {
			return nil, err
		}
		s := exporter.Export(boardID, version, doc)
		sceneCache.Put(boardID, version, s)
		return s, nil
	})

	d.Register("timeline:mark", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 2 {
			return nil, fmt.Errorf("timeline:mark requires board, clock")
		}
		clock, err := strconv.ParseFloat(e.Args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad clock %q: %w", e.Args[1], err)
		}
		label := ""
		if len(e.Args) > 2 {
			label = e.Args[2]
		}
		return marks.RecordMark(bus, e.Args[0], clock, label)
	}, dispatcher.Logged())

	d.Register("timeline:restore", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 2 {
			return nil, fmt.Errorf("timeline:restore requires board, clock")
		}
		clock, err := strconv.ParseFloat(e.Args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad clock %q: %w", e.Args[1], err)
		}
		mark, ok := marks.ResolveAt(e.Args[0], clock)
		if !ok {
			return nil, fmt.Errorf("no mark at or before clock %s on board %q", e.Args[1], e.Args[0])
		}
		report, err := marks.Restore(bus, mark, catalog)
		if err != nil {
			return nil, err
		}
		if e.Args[0] == mainBoard {
			if err := marks.SeekTo(transport, mark); err != nil {
				return nil, err
			}
		}
		return report, nil
	}, dispatcher.Logged())

	d.Register("session:save", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 1 {
			return nil, fmt.Errorf("session:save requires a name")
		}
		return "ok", saveSession(e.Args[0])
	}, dispatcher.Logged())

	d.Register("session:load", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 1 {
			return nil, fmt.Errorf("session:load requires a name")
		}
		return "ok", loadSession(e.Args[0])
	}, dispatcher.Logged())

	d.Register("telemetry:flush", func(e dispatcher.Event) (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if OTelProvider != nil {
			if err := OTelProvider.Flush(ctx); err != nil {
				return nil, err
			}
		}
		return "ok", SlogManager.Flush(ctx)
	})
}

func parsePoint(xs, ys string) (core.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return core.Point{}, fmt.Errorf("bad x %q: %w", xs, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return core.Point{}, fmt.Errorf("bad y %q: %w", ys, err)
	}
	return core.Point{X: x, Y: y}, nil
}

// sidePlayers returns the loaded roster's players for one side, or nil
// when no roster file is configured. Formations fall back to bare tokens.
func sidePlayers(side core.Side) []core.Player {
	if roster == nil {
		return nil
	}
	return roster.Side(side)
}
