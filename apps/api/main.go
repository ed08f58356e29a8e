package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/calendar"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/staff"
	emailsvc "github.com/trezcool/ratiba/services/email"
	logsvc "github.com/trezcool/ratiba/services/logger"
	metricsvc "github.com/trezcool/ratiba/services/metrics"
	refreshsvc "github.com/trezcool/ratiba/services/refresh"
	"github.com/trezcool/ratiba/storage/database"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	metrics := metricsvc.New()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	staffSvc := staff.NewService(sqlxrepos.NewStaffRepository(db))

	scheduleRepo := sqlxrepos.NewScheduleRepository(db)
	scheduleSvc := schedule.NewService(
		scheduleRepo,
		schedule.NewSnapshotStore(scheduleRepo, metrics.ObserveRefresh),
		staffSvc,
		schedule.Options{
			Geometry:      geometry(conf.Calendar),
			Location:      conf.Calendar.Location(),
			Logger:        logger,
			ObserveLayout: metrics.ObserveLayout,
		},
	)

	attendanceSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), staffSvc, mailSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger, conf.Debug)

	// load the timetable before serving it
	if err = scheduleSvc.Refresh(context.Background()); err != nil {
		logger.Fatal(fmt.Sprintf("loading timetable: %v", err), err)
	}

	refresher, err := refreshsvc.New(conf.Snapshot.RefreshCron, scheduleSvc, logger, conf.Server.ShutdownTimeout)
	if err != nil {
		logger.Fatal(fmt.Sprintf("scheduling timetable refreshes: %v", err), err)
	}
	refresher.Start()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			StaffSvc:      staffSvc,
			ScheduleSvc:   scheduleSvc,
			AttendanceSvc: attendanceSvc,
			Metrics:       metrics,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = refresher.Stop(ctx); err != nil {
			logger.Warn(fmt.Sprintf("could not stop timetable refreshes: %v", err), err)
		}

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(context.Background(), db); err != nil {
		return nil, err
	}
	return db, nil
}

func geometry(cc core.CalendarConfig) calendar.Geometry {
	return calendar.Geometry{
		DayStart:        calendar.ClockOrNone(cc.DayStart),
		PixelsPerMinute: cc.PixelsPerMinute,
		MinHeight:       cc.MinEventMinutes,
	}
}
