package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"

	"github.com/finsim/acs-emulator/acs"
	"github.com/finsim/acs-emulator/acscrypto"
	"github.com/finsim/acs-emulator/flows"
	"github.com/finsim/acs-emulator/internal/config"
	"github.com/finsim/acs-emulator/server"
	"github.com/finsim/acs-emulator/transactions/boltrepo"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	table, err := flows.LoadTable(c.GetFlowTablePath())
	if err != nil {
		return fmt.Errorf("flows.LoadTable: %w", err)
	}

	signingKeys, err := acscrypto.LoadSigningKeys(c.GetSigningKeyPath(), c.GetSigningCertPath())
	if err != nil {
		log.Warn().Err(err).Msg("no provisioned signing keys, generating an ephemeral pair")
		signingKeys, err = acscrypto.GenerateSigningKeys()
		if err != nil {
			return fmt.Errorf("acscrypto.GenerateSigningKeys: %w", err)
		}
	}

	if err := os.MkdirAll(c.GetDataFolder(), 0755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}
	repo, err := boltrepo.New(filepath.Join(c.GetDataFolder(), "transactions.db"))
	if err != nil {
		return fmt.Errorf("boltrepo.New: %w", err)
	}
	defer repo.Close()

	acsService, err := acs.NewService(repo, flows.NewResolver(table), signingKeys, c.GetBaseURL())
	if err != nil {
		return fmt.Errorf("acs.NewService: %w", err)
	}

	handler, err := server.New(c, acsService)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
