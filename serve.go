package main

import (
	"github.com/spf13/cobra"

	"github.com/castwave/castwave/lib/config"
	"github.com/castwave/castwave/lib/server"
	"github.com/castwave/castwave/lib/util"
	"github.com/castwave/castwave/lib/util/logger"
	"github.com/castwave/castwave/lib/util/signals"
)

// newServeCommand constructs `castwave serve`.
func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the castwave daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runServe()
		},
	}
}

// resolveLaunch reads the launch configuration and applies command-line
// overrides.
func resolveLaunch() *config.LaunchConfig {
	config.InitConfig()
	launch := config.NewLaunchConfigFromViper()
	if flagBaseDir != "" {
		launch.BaseDir = flagBaseDir
	}
	if flagLogLevel != "" {
		launch.LogLevel = flagLogLevel
	}
	logger.SetLevelFromString(launch.LogLevel)
	return launch
}

// buildManager assembles the configuration core over the launch layout.
func buildManager(launch *config.LaunchConfig) (*config.Manager, *config.ServerPaths, *config.FileRepository, error) {
	paths, err := config.NewServerPaths(launch.BaseDir)
	if err != nil {
		return nil, nil, nil, err
	}
	repo, err := config.NewFileRepository(paths.ConfigDir())
	if err != nil {
		return nil, nil, nil, err
	}
	mgr, err := config.NewManager(repo, paths)
	if err != nil {
		return nil, nil, nil, err
	}
	return mgr, paths, repo, nil
}

// runServe wires the daemon together and blocks until shutdown: launch
// config, directory layout, repository, manager, server, signal handlers,
// and the optional file watcher.
func runServe() error {
	launch := resolveLaunch()

	mgr, paths, repo, err := buildManager(launch)
	if err != nil {
		return err
	}
	srv, err := server.CreateServer(mgr, paths)
	if err != nil {
		return err
	}

	signals.RegisterReloadHandler(func() {
		if err := mgr.ReloadFromDisk(); err != nil {
			log.WithError(err).Warn("Configuration reload failed, keeping active configuration")
		}
	})
	signals.RegisterInterruptHandler(func() {
		srv.Stop()
	})
	go signals.Handle()
	defer signals.StopHandle()

	if launch.WatchConfig {
		w, err := config.NewWatcher(mgr, repo.Dir())
		if err != nil {
			log.WithError(err).Warn("Configuration watcher unavailable")
		} else {
			w.Start()
			util.RegisterCloser(w)
		}
	}

	log.WithFields(logger.Fields{
		"base_dir":    launch.BaseDir,
		"server_name": mgr.Current().ServerName,
	}).Info("castwave starting")

	srv.Start()
	srv.Wait()
	err = srv.Close()
	util.CloseAll()
	return err
}
