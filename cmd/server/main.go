package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	auditpersistence "github.com/addissystems/orgadmin/modules/audit/infrastructure/persistence"
	auditservices "github.com/addissystems/orgadmin/modules/audit/services"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/role"
	corepersistence "github.com/addissystems/orgadmin/modules/core/infrastructure/persistence"
	"github.com/addissystems/orgadmin/modules/core/permissions"
	coreservices "github.com/addissystems/orgadmin/modules/core/services"
	delegationpersistence "github.com/addissystems/orgadmin/modules/delegation/infrastructure/persistence"
	delegationservices "github.com/addissystems/orgadmin/modules/delegation/services"
	orgpersistence "github.com/addissystems/orgadmin/modules/org/infrastructure/persistence"
	orgservices "github.com/addissystems/orgadmin/modules/org/services"
	"github.com/addissystems/orgadmin/migrations"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/configuration"
	"github.com/addissystems/orgadmin/pkg/eventbus"
)

const delegationSweepInterval = time.Hour

// engine is the full wired service set handed to the transport layer.
type engine struct {
	audit       *auditservices.AuditService
	authority   *coreservices.AuthorityService
	users       *coreservices.UserService
	roles       *coreservices.RoleService
	structure   *orgservices.StructureService
	hierarchy   *orgservices.HierarchyService
	delegations *delegationservices.DelegationService
}

func buildEngine(conf *configuration.Configuration, publisher eventbus.EventBus) *engine {
	userRepo := corepersistence.NewUserRepository()
	roleRepo := corepersistence.NewRoleRepository()
	orgRepo := orgpersistence.NewOrganizationRepository()
	sectorRepo := orgpersistence.NewSectorRepository()
	departmentRepo := orgpersistence.NewDepartmentRepository()
	teamRepo := orgpersistence.NewTeamRepository()
	delegationRepo := delegationpersistence.NewDelegationRepository()

	auditService := auditservices.NewAuditService(auditpersistence.NewAuditLogRepository())
	return &engine{
		audit:     auditService,
		authority: coreservices.NewAuthorityService(delegationRepo),
		users:     coreservices.NewUserService(userRepo, publisher, auditService),
		roles:     coreservices.NewRoleService(roleRepo, publisher, auditService),
		structure: orgservices.NewStructureService(
			orgRepo, sectorRepo, departmentRepo, teamRepo,
			userRepo, auditService, publisher, conf.Hierarchy.MaxDepth,
		),
		hierarchy: orgservices.NewHierarchyService(
			userRepo, orgRepo, sectorRepo, departmentRepo, teamRepo,
		),
		delegations: delegationservices.NewDelegationService(delegationRepo, userRepo, auditService, publisher),
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	migrationDB := stdlib.OpenDBFromPool(pool)
	if err := migrations.Up(migrationDB); err != nil {
		logger.WithError(err).Fatal("migrations failed")
	}
	if err := migrationDB.Close(); err != nil {
		logger.WithError(err).Warn("failed to close migration handle")
	}

	eng := buildEngine(conf, eventbus.NewEventPublisher(logger))

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = composables.WithPool(rootCtx, pool)
	rootCtx = composables.WithLogger(rootCtx, logrus.NewEntry(logger))

	if err := ensureSuperAdminRole(rootCtx, eng.roles); err != nil {
		logger.WithError(err).Fatal("failed to seed super admin role")
	}

	go sweepDelegations(rootCtx, eng.delegations, logger)

	if conf.Prometheus.Enabled {
		go serveMetrics(conf, logger)
	}

	logger.WithField("env", conf.GoAppEnvironment).Info("engine ready")
	<-rootCtx.Done()
	logger.Info("shutting down")
	conf.Unload()
}

// ensureSuperAdminRole seeds the built-in role holding the full permission
// catalog. Creating it also upserts the catalog itself, so a fresh database
// ends up with every known permission row.
func ensureSuperAdminRole(ctx context.Context, roles *coreservices.RoleService) error {
	existing, err := roles.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, r := range existing {
		if strings.EqualFold(r.Name(), role.SuperAdminName) {
			return nil
		}
	}
	_, err = roles.Create(ctx, role.New(
		role.SuperAdminName,
		role.WithDescription("Built-in role granting every permission."),
		role.WithPermissions(permissions.Permissions),
	))
	return err
}

// sweepDelegations periodically flips overdue stored-active delegations to
// expired. Reads never depend on it; it only keeps stored state tidy.
func sweepDelegations(ctx context.Context, svc *delegationservices.DelegationService, logger *logrus.Logger) {
	ticker := time.NewTicker(delegationSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.Sweep(ctx)
			if err != nil {
				logger.WithError(err).Error("delegation sweep failed")
				continue
			}
			if n > 0 {
				logger.WithField("expired", n).Info("delegation sweep")
			}
		}
	}
}

func serveMetrics(conf *configuration.Configuration, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(conf.Prometheus.Path, promhttp.Handler())
	server := &http.Server{
		Addr:              ":9090",
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.WithField("path", conf.Prometheus.Path).Info("metrics endpoint listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("metrics server stopped")
	}
}
