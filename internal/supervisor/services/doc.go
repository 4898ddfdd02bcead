// Murmur - Social Content Engagement Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

// Package services adapts Murmur components to suture.Service.
//
// Each wrapper turns its component's lifecycle into Serve(ctx) error: it
// runs until ctx is canceled, returns an error to request a restart, and
// implements fmt.Stringer so supervisor events name it.
package services
