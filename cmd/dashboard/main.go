package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/gaelruiz9024/fraud-dashboard/internal/backend"
	"github.com/gaelruiz9024/fraud-dashboard/internal/handler"
	"github.com/gaelruiz9024/fraud-dashboard/internal/notify"
	"github.com/gaelruiz9024/fraud-dashboard/internal/session"
	"github.com/gaelruiz9024/fraud-dashboard/internal/triage"
	"github.com/gaelruiz9024/fraud-dashboard/pkg/credstore"
	"github.com/gaelruiz9024/fraud-dashboard/pkg/pagepreview"
	"github.com/gaelruiz9024/fraud-dashboard/pkg/watcher"
)

type config struct {
	BackendURL    string `json:"backend_url"`
	ListenAddr    string `json:"listen_addr"`
	CredStorePath string `json:"cred_store_path"`
	StoreSecret   string `json:"store_secret"`
	TgToken       string `json:"tg_token"`
	TgChatID      int64  `json:"tg_chat_id"`
	TemplatesPath string `json:"templates_path"`
	Debug         bool   `json:"debug"`
}

func readCfg(path string) (*config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var c config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return nil, err
	}
	if c.BackendURL == "" {
		return nil, errors.New("backend_url is required")
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.CredStorePath == "" {
		c.CredStorePath = "./credentials.db"
	}
	return &c, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "./cfg.json"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := readCfg(cfgPath)
	if err != nil {
		return err
	}

	var store *credstore.BoltStore
	if cfg.Debug {
		store, err = credstore.NewTempStore()
	} else {
		store, err = credstore.NewBoltStore(cfg.CredStorePath, cfg.StoreSecret)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	msgs := notify.NewMessages()
	if cfg.TemplatesPath != "" {
		w, err := watcher.LoadAndWatch(cfg.TemplatesPath, msgs)
		if err != nil {
			return errors.Wrap(err, "loading message templates")
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Println(errors.Wrap(err, "closing template watcher"))
			}
		}()
	}

	var notifier *notify.Notifier
	if cfg.TgToken != "" {
		notifier, err = notify.New(cfg.TgToken, cfg.TgChatID, msgs)
		if err != nil {
			return err
		}
	}

	api := backend.NewClient(cfg.BackendURL, store)
	guard := session.NewGuard(store, api, func(route string) {
		log.Printf("session: redirecting to %s", route)
	})
	api.OnForcedLogout(func() {
		notifier.ForcedLogout()
		guard.Logout()
	})

	svc := triage.NewService(api, pagepreview.New(), notifier)

	mx := chi.NewRouter()
	handler.NewHandlers(guard, svc).Register(mx)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mx,
	}

	go guard.Bootstrap(context.Background())

	errCh := make(chan error, 1)
	go func() {
		log.Printf("dashboard listening on %s", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	terminate := make(chan os.Signal, 1)
	signal.Notify(terminate, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-terminate:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
