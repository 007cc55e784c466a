package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chobi-social/chobi-server/auth"
	"github.com/chobi-social/chobi-server/internal/config"
	mongopostrepo "github.com/chobi-social/chobi-server/posts/mongorepo"
	"github.com/chobi-social/chobi-server/server"
	"github.com/chobi-social/chobi-server/token"
	mongouserrepo "github.com/chobi-social/chobi-server/users/mongorepo"
)

const mongoConnectTimeout = 10 * time.Second

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("app", "chobi-server").Logger()

	for {
		if err := run(log); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run(log zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.GetMongoURI()))
	if err != nil {
		return fmt.Errorf("mongo.Connect: %w", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo.Ping: %w", err)
	}
	db := client.Database(c.GetMongoDatabase())

	userRepo := mongouserrepo.NewMongoUserRepo(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return err
	}
	postRepo := mongopostrepo.NewMongoPostRepo(db)
	if err := postRepo.EnsureIndexes(ctx); err != nil {
		return err
	}

	sessionService, err := auth.NewSessionService(userRepo, token.NewCodec(c))
	if err != nil {
		return fmt.Errorf("auth.NewSessionService: %w", err)
	}

	handler, err := server.New(c, sessionService, userRepo, postRepo, log)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer, log)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server, log zerolog.Logger) {
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
