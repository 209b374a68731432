//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	"relay/config"
	"relay/internal/api"
	"relay/internal/auth"
	"relay/internal/chat"
	"relay/internal/contacts"
	"relay/internal/database"
	"relay/internal/presence"
)

var AppSet = wire.NewSet(
	provideLogger,
	provideUserStore,
	provideORM,
	provideRedis,
	provideCodeStore,
	provideSessionStore,
	provideMailer,
	provideCodeMailer,
	provideNotifier,
	provideCodes,
	provideJWT,
	provideCredentials,
	provideCookieOptions,
	provideDiskStore,
	provideUploader,
	provideUserLookup,
	provideBlockChecker,
	providePresenceHandler,
	provideHealth,
	contacts.Set,
	chat.Set,
	presence.Set,
	auth.Set,
	api.Set,
	wire.Struct(new(App), "*"),
)

func initializeApp(ctx context.Context, cfg *config.Config, db *database.Database, log *logrus.Logger) (*App, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
