package app

import (
	"go.uber.org/fx"

	"github.com/kirana-labs/kirana/internal/cache"
	"github.com/kirana-labs/kirana/internal/config"
	"github.com/kirana-labs/kirana/internal/database"
	"github.com/kirana-labs/kirana/internal/feed"
	"github.com/kirana-labs/kirana/internal/logger"
	"github.com/kirana-labs/kirana/internal/messaging"
	"github.com/kirana-labs/kirana/internal/notify"
	"github.com/kirana-labs/kirana/internal/observability"
	repositorydefaultorder "github.com/kirana-labs/kirana/internal/repository/defaultorder"
	repositoryhotel "github.com/kirana-labs/kirana/internal/repository/hotel"
	repositoryorder "github.com/kirana-labs/kirana/internal/repository/order"
	httpserver "github.com/kirana-labs/kirana/internal/server/http"
	servicedefaultorder "github.com/kirana-labs/kirana/internal/service/defaultorder"
	servicehotel "github.com/kirana-labs/kirana/internal/service/hotel"
	serviceorder "github.com/kirana-labs/kirana/internal/service/order"
	"github.com/kirana-labs/kirana/internal/store"
	transporthttp "github.com/kirana-labs/kirana/internal/transport/http"
	"github.com/kirana-labs/kirana/internal/worker"
	workerorder "github.com/kirana-labs/kirana/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	notify.Module,
	observability.Module,
	repositoryorder.Module,
	repositoryhotel.Module,
	repositorydefaultorder.Module,
	feed.Module,
	serviceorder.Module,
	servicehotel.Module,
	servicedefaultorder.Module,
	store.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
