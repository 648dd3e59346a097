// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"io/ioutil"
	"math"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fsnotify/fsnotify"

	"github.com/h3caps/h3caps-go/pkg/capsule"
	"github.com/h3caps/h3caps-go/pkg/transport"
)

// exchange datagrams between an user and a capsule endpoint over the
// filesystem.
type exchange struct {
	directory  string
	knownFiles sync.Map
	session    *transport.Session
	watcher    *fsnotify.Watcher

	closeChan chan os.Signal
}

// startExchange to exchange datagrams between the client and a capsule
// endpoint.
func startExchange(args []string) {
	if len(args) != 2 {
		printUsage()
	}

	var (
		websocketAddr = args[0]
		directory     = args[1]

		err error
	)

	ex := &exchange{
		directory: directory,
		closeChan: make(chan os.Signal),
	}

	signal.Notify(ex.closeChan, os.Interrupt)

	if ex.session, err = transport.DialWebSocket(websocketAddr); err != nil {
		printFatal(err, "Dialing the capsule endpoint errored")
	}

	if ex.watcher, err = fsnotify.NewWatcher(); err != nil {
		printFatal(err, "Starting file watcher errored")
	}
	if err = ex.watcher.Add(directory); err != nil {
		printFatal(err, "Adding directory to file watcher errored")
	}

	ex.handler()
}

// cleanFilepath creates a relative path from the initial path to a new file's path.
func (ex *exchange) cleanFilepath(f string) string {
	if rel, err := filepath.Rel(ex.directory, f); err != nil {
		log.WithField("path", f).WithError(err).Fatal("Failed to clean file path")
		return ""
	} else {
		return rel
	}
}

func (ex *exchange) handler() {
	defer func() {
		_ = ex.watcher.Close()
		_ = ex.session.Close()
	}()

	for {
		select {
		case <-ex.closeChan:
			log.Info("Received interrupt signal")
			return

		case e, ok := <-ex.watcher.Events:
			if !ok {
				log.Error("fsnotify's Event channel was closed")
				return
			}

			if _, ok := ex.knownFiles.Load(ex.cleanFilepath(e.Name)); ok {
				log.WithField("file", e.Name).Debug("Skipping file; already known")
				continue
			}

			if e.Op&fsnotify.Create == 0 {
				log.WithFields(log.Fields{
					"file":      e.Name,
					"operation": e.Op.String(),
				}).Debug("Ignoring fsnotify event")
				continue
			}

			ex.readNewFile(e)

		case err, ok := <-ex.watcher.Errors:
			if !ok {
				log.Error("fsnotify's Errors channel was closed")
				return
			}

			log.WithError(err).Error("fsnotify errored")
			return

		case err := <-ex.session.Err():
			log.WithError(err).Error("Capsule session errored")
			return

		case c, ok := <-ex.session.In():
			if !ok {
				log.Info("Capsule session ended")
				return
			}

			ex.saveCapsule(c)
		}
	}
}

// saveCapsule writes a received datagram into the exchange directory.
func (ex *exchange) saveCapsule(c capsule.Capsule) {
	dc, ok := c.(*capsule.DatagramCapsule)
	if !ok {
		log.WithField("capsule", c).Debug("Ignoring capsule; not a datagram")
		return
	}

	digest := sha256.Sum256(dc.Payload)
	filePath := path.Join(ex.directory, hex.EncodeToString(digest[:8]))
	logger := log.WithField("file", filePath)

	ex.knownFiles.Store(ex.cleanFilepath(filePath), struct{}{})

	if err := ioutil.WriteFile(filePath, dc.Payload, 0644); err != nil {
		logger.WithError(err).Error("Writing datagram errored")
		return
	}

	logger.Info("Saved received datagram")
}

func (ex *exchange) readNewFile(e fsnotify.Event) {
	for i := 0; i < 5; i++ {
		if data, err := ioutil.ReadFile(e.Name); err != nil {
			log.WithError(err).WithField("file", e.Name).Warn("Reading file errored, retrying..")
		} else if err := ex.session.Send(capsule.NewDatagramCapsule(data)); err != nil {
			log.WithError(err).WithField("file", e.Name).Error("Sending datagram errored")
			return
		} else {
			log.WithFields(log.Fields{
				"file": e.Name,
				"size": len(data),
			}).Info("Sent datagram")
			return
		}

		time.Sleep(time.Duration(math.Pow(2, float64(i))) * 100 * time.Millisecond)
	}

	log.WithField("file", e.Name).Error("Failed to process file, giving up.")
}
