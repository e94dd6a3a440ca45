// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package services adapts server components to suture.Service.
//
// HTTPServerService wraps *http.Server with graceful shutdown.
// StartupSyncService runs one automated sync pass over every source at boot
// and then retires with suture.ErrDoNotRestart.
package services
