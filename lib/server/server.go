package server

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/castwave/castwave/lib/config"
	"github.com/castwave/castwave/lib/util/logger"
	"github.com/samber/oops"
)

var log = logger.GetCastwaveLogger()

// Server is the castwave daemon shell. It subscribes to the configuration
// manager, mirrors the settings the runtime acts on, and runs the
// housekeeping mainloop until stopped.
type Server struct {
	mgr   *config.Manager
	paths *config.ServerPaths

	// close channel
	closeChnl chan bool
	// closed by the mainloop on exit; Wait blocks on it
	doneChnl   chan struct{}
	finishOnce sync.Once
	// running/stopping flags and mutex for thread-safe access
	running  bool
	started  bool
	stopping bool
	runMux   sync.RWMutex

	subs []*config.Subscription

	// snapshot of the settings the runtime reads on hot paths
	statMux      sync.RWMutex
	maxStreams   int
	transcoding  bool
	configEvents uint64
	lastChange   time.Time
}

// CreateServer creates a server wired to the provided configuration manager
// and paths.
func CreateServer(mgr *config.Manager, paths *config.ServerPaths) (*Server, error) {
	if mgr == nil {
		return nil, oops.Errorf("configuration manager is nil")
	}
	if paths == nil {
		return nil, oops.Errorf("server paths are nil")
	}

	s := &Server{
		mgr:       mgr,
		paths:     paths,
		closeChnl: make(chan bool, 1),
		doneChnl:  make(chan struct{}),
	}
	s.applyConfiguration(mgr.Current())
	s.applyEncoding(mgr.EncodingOptions())
	s.subscribe()

	log.Debug("Server created successfully with provided configuration")
	return s, nil
}

func (s *Server) subscribe() {
	s.subs = append(s.subs,
		s.mgr.SubscribeUpdating(s.onConfigurationUpdating),
		s.mgr.SubscribeUpdated(s.onConfigurationUpdated),
	)
}

// onConfigurationUpdating vetoes replacements once shutdown has begun, so a
// commit cannot land between teardown steps.
func (s *Server) onConfigurationUpdating(candidate *config.ServerConfiguration) error {
	s.runMux.RLock()
	defer s.runMux.RUnlock()
	if s.stopping {
		return oops.Errorf("server is shutting down, configuration changes are not accepted")
	}
	return nil
}

// onConfigurationUpdated folds committed changes into the runtime snapshot.
func (s *Server) onConfigurationUpdated(ev config.UpdatedEvent) error {
	if ev.Root() {
		cfg, _ := ev.Fragment.(*config.ServerConfiguration)
		if cfg == nil {
			cfg = s.mgr.Current()
		}
		s.applyConfiguration(cfg)
	} else if ev.Key == config.EncodingKey {
		enc, _ := ev.Fragment.(*config.EncodingOptions)
		if enc == nil {
			enc = s.mgr.EncodingOptions()
		}
		s.applyEncoding(enc)
	}

	s.statMux.Lock()
	s.configEvents++
	s.lastChange = time.Now()
	s.statMux.Unlock()

	log.WithFields(logger.Fields{
		"at":   "(Server) onConfigurationUpdated",
		"root": ev.Root(),
		"key":  ev.Key,
	}).Debug("configuration change applied")
	return nil
}

func (s *Server) applyConfiguration(cfg *config.ServerConfiguration) {
	s.statMux.Lock()
	s.maxStreams = cfg.Streaming.MaxConcurrentStreams
	s.statMux.Unlock()
}

func (s *Server) applyEncoding(enc *config.EncodingOptions) {
	s.statMux.Lock()
	s.transcoding = strings.TrimSpace(enc.TranscodingTempPath) != ""
	s.statMux.Unlock()
}

// MaxConcurrentStreams is the active playback slot limit.
func (s *Server) MaxConcurrentStreams() int {
	s.statMux.RLock()
	defer s.statMux.RUnlock()
	return s.maxStreams
}

// TranscodingEnabled reports whether a transcoder scratch path is
// configured.
func (s *Server) TranscodingEnabled() bool {
	s.statMux.RLock()
	defer s.statMux.RUnlock()
	return s.transcoding
}

// ConfigEvents counts committed configuration changes seen since creation.
func (s *Server) ConfigEvents() uint64 {
	s.statMux.RLock()
	defer s.statMux.RUnlock()
	return s.configEvents
}

// Running reports whether the mainloop is active.
func (s *Server) Running() bool {
	s.runMux.RLock()
	defer s.runMux.RUnlock()
	return s.running
}

// Start starts the server mainloop
func (s *Server) Start() {
	s.runMux.Lock()
	defer s.runMux.Unlock()

	if s.running {
		log.WithFields(logger.Fields{
			"at":     "(Server) Start",
			"reason": "server is already running",
		}).Error("Error starting server")
		return
	}
	if s.stopping {
		log.WithFields(logger.Fields{
			"at":     "(Server) Start",
			"reason": "server has been stopped",
		}).Error("Error starting server")
		return
	}
	log.Debug("Starting server")
	s.running = true
	s.started = true
	go s.mainloop()
}

// Stop starts stopping internal state of the server
func (s *Server) Stop() {
	log.Debug("Stopping server")
	s.runMux.Lock()
	defer s.runMux.Unlock()

	if !s.running {
		s.stopping = true
		if !s.started {
			// the mainloop never ran, release any waiters ourselves
			s.finish()
		}
		log.Debug("Server already stopped")
		return
	}

	s.running = false
	s.stopping = true

	// Send close signal without blocking - use select with default case
	select {
	case s.closeChnl <- true:
		log.Debug("Server stop signal sent")
	default:
		log.Debug("Server stop signal already sent or channel full")
	}
}

// Wait blocks until the server is fully stopped
func (s *Server) Wait() {
	log.Debug("Waiting for server to stop")
	<-s.doneChnl
	log.Debug("Server has stopped")
}

// Close finalizes server resources so that nothing can start up again
func (s *Server) Close() error {
	s.Stop()
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.finish()
	log.Debug("Server closed")
	return nil
}

func (s *Server) finish() {
	s.finishOnce.Do(func() {
		close(s.doneChnl)
	})
}

// run server mainloop
func (s *Server) mainloop() {
	defer s.finish()

	if err := s.ensureDataLayout(); err != nil {
		log.WithError(err).Error("Failed to prepare data directories")
		s.Stop()
		return
	}

	s.runMainLoop()
	log.Debug("Exiting server mainloop")
}

// ensureDataLayout creates the directories the server owns. The metadata
// directory is only created when it lives under program data; overridden
// locations were already verified to exist by the replacement rules.
func (s *Server) ensureDataLayout() error {
	meta := s.paths.MetadataPath()
	owned := s.paths.ProgramDataPath() + string(filepath.Separator)
	if meta != "" && strings.HasPrefix(meta, owned) {
		if err := config.CreateStandardDirectory(meta); err != nil {
			return err
		}
	}
	return nil
}

// runMainLoop executes the primary server event loop
func (s *Server) runMainLoop() {
	log.WithFields(logger.Fields{
		"at": "(Server) mainloop",
	}).Debug("Server ready with configuration change processing enabled")

	for {
		s.runMux.RLock()
		shouldRun := s.running
		s.runMux.RUnlock()

		if !shouldRun {
			break
		}

		select {
		case <-s.closeChnl:
			log.Debug("Server received close signal in mainloop")
			return
		case <-time.After(time.Second):
			// Continue loop after 1 second timeout
		}
	}
}
