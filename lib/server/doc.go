// Package server runs the castwave daemon shell around the configuration
// manager, the derived path layer, and the housekeeping mainloop.
//
// # Server Architecture
//
// The Server ties together:
//   - The configuration manager for the active settings and named fragments
//   - Pre-replace and post-update observers on the change notifier
//   - A runtime snapshot of the settings hot paths read (stream slots,
//     transcoder availability)
//   - A periodic housekeeping loop that owns the program data layout
//
// # Usage Example
//
//	srv, err := server.CreateServer(mgr, paths)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start server (non-blocking)
//	srv.Start()
//
//	// Server runs in background...
//
//	// Graceful shutdown
//	srv.Stop()
//	srv.Wait()
//	srv.Close()
package server
