package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	"doorcheck/bot"
	"doorcheck/impl/auth"
	"doorcheck/impl/core"
	"doorcheck/internal/checkin"
	"doorcheck/internal/config"
	"doorcheck/internal/database"
	"doorcheck/internal/http-server/api"
	"doorcheck/lib/logger"
	"doorcheck/lib/sl"

	"github.com/joho/godotenv"
)

const logFileName = "doorcheck.log"

type registrationStore interface {
	checkin.Store
	database.Importer
}

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	if err := godotenv.Load(*envFile); err == nil {
		log.Printf("loaded environment from %s", *envFile)
	}

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting doorcheck",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("store", conf.Store.Driver),
	)

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AdminIds, lg)
		if err != nil {
			lg.Error("telegram bot", sl.Err(err))
		} else {
			tgBot.SetLogLevel(slog.Level(conf.Telegram.LogLevel))
			lg = slog.New(logger.NewTelegramHandler(lg.Handler(), tgBot, slog.LevelDebug))
			lg.Info("telegram alerts enabled", slog.Int("admins", len(conf.Telegram.AdminIds)))
		}
	}

	loc, err := conf.TimeLocation()
	if err != nil {
		lg.Error("location", sl.Err(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, operators, closeStore, err := openStore(ctx, conf)
	cancel()
	if err != nil {
		lg.Error("open store", sl.Err(err))
		return
	}
	defer closeStore()

	if conf.Store.SeedFile != "" {
		seed, err := database.LoadSeedFile(conf.Store.SeedFile)
		if err != nil {
			lg.Error("seed", sl.Err(err))
			return
		}
		if err = store.Import(context.Background(), seed); err != nil {
			lg.Error("seed", sl.Err(err))
			return
		}
		lg.With(
			slog.String("file", conf.Store.SeedFile),
			slog.Int("registrations", len(seed.Registrations)),
		).Info("seed imported")
	}

	svc := checkin.New(store, lg, checkin.Options{
		Timeout:     conf.CheckInTimeout(),
		Location:    loc,
		RecentLimit: conf.CheckIn.RecentLimit,
	})
	handler := core.New(svc, lg)
	handler.SetAuthService(auth.New(operators))

	if tgBot != nil {
		tgBot.SetLocation(loc)
		tgBot.SetStatsService(handler)
		go func() {
			if err := tgBot.Start(); err != nil {
				lg.Error("telegram bot", sl.Err(err))
			}
		}()
		defer tgBot.Stop()
	}

	// api.New blocks while serving
	if err = api.New(conf, lg, handler); err != nil {
		lg.Error("server stopped", sl.Err(err))
	}
}

// openStore selects the registration store. Operators come from MongoDB when
// it is the store, otherwise from the config file.
func openStore(ctx context.Context, conf *config.Config) (registrationStore, auth.Database, func(), error) {
	static := auth.NewStatic(conf.Operators)
	switch conf.Store.Driver {
	case config.DriverMySql:
		s, err := database.NewSQLClient(conf)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, static, s.Close, nil
	case config.DriverPostgres:
		s, err := database.NewPostgres(ctx, conf)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, static, s.Close, nil
	case config.DriverMongo:
		s, err := database.NewMongoClient(ctx, conf)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { s.Close(context.Background()) }
		for i := range conf.Operators {
			if err = s.SaveOperator(ctx, &conf.Operators[i]); err != nil {
				closeFn()
				return nil, nil, nil, err
			}
		}
		return s, s, closeFn, nil
	default:
		return database.NewMemory(), static, func() {}, nil
	}
}
