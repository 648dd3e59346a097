// SPDX-FileCopyrightText: 2025, 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"net/netip"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/BurntSushi/toml"

	"github.com/h3caps/h3caps-go/pkg/sessioncache"
	"github.com/h3caps/h3caps-go/pkg/transport"
)

// tomlConfig describes the TOML-configuration.
type tomlConfig struct {
	Logging     logConf
	Cache       cacheConf
	Listen      []listenConf
	AddressPool addressPoolConf `toml:"address-pool"`
}

// logConf describes the Logging-configuration block.
type logConf struct {
	Level        string
	ReportCaller bool `toml:"report-caller"`
	Format       string
}

// cacheConf describes the Cache-configuration block.
type cacheConf struct {
	Backend string
	Path    string
}

// listenConf describes one Listen-configuration block.
type listenConf struct {
	Protocol string
	Endpoint string
}

// addressPoolConf describes the AddressPool-configuration block.
type addressPoolConf struct {
	Prefix string
}

// configureLogging applies the Logging block to the global logger.
func configureLogging(conf logConf) {
	if conf.Level != "" {
		if lvl, err := log.ParseLevel(conf.Level); err != nil {
			log.WithFields(log.Fields{
				"level":    conf.Level,
				"error":    err,
				"provided": "panic,fatal,error,warn,info,debug,trace",
			}).Warn("Failed to set log level. Please select one of the provided ones")
		} else {
			log.SetLevel(lvl)
		}
	}

	log.SetReportCaller(conf.ReportCaller)

	switch conf.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})

	case "json":
		log.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})

	default:
		log.Warn("Unknown logging format")
	}
}

// parseCache creates the session cache backend.
func parseCache(conf cacheConf) (sessioncache.Cache, error) {
	switch conf.Backend {
	case "", "memory":
		return sessioncache.NewMemoryCache(), nil

	case "badger":
		if conf.Path == "" {
			return nil, fmt.Errorf("cache.path is empty")
		}
		return sessioncache.NewBadgerCache(conf.Path)

	default:
		return nil, fmt.Errorf("unknown cache.backend %q", conf.Backend)
	}
}

// parseListen creates one capsule listener.
func parseListen(conf listenConf) (capsuleListener, error) {
	switch conf.Protocol {
	case "tcp":
		return transport.ListenTCP(conf.Endpoint)

	case "ws":
		return transport.ListenWebSocket(conf.Endpoint)

	case "quic":
		return transport.ListenQUIC(conf.Endpoint)

	default:
		return nil, fmt.Errorf("unknown listen.protocol %q", conf.Protocol)
	}
}

// parseDaemon creates the daemon based on the given TOML configuration.
func parseDaemon(filename string) (d *daemon, err error) {
	var conf tomlConfig
	if _, err = toml.DecodeFile(filename, &conf); err != nil {
		return
	}

	configureLogging(conf.Logging)

	cache, cacheErr := parseCache(conf.Cache)
	if cacheErr != nil {
		err = cacheErr
		return
	}

	if conf.AddressPool.Prefix == "" {
		err = fmt.Errorf("address-pool.prefix is empty")
		return
	}
	poolPrefix, prefixErr := netip.ParsePrefix(conf.AddressPool.Prefix)
	if prefixErr != nil {
		err = prefixErr
		return
	}

	d = newDaemon(cache, newAddressPool(poolPrefix))

	for _, l := range conf.Listen {
		listener, listenErr := parseListen(l)
		if listenErr != nil {
			d.close()
			return nil, listenErr
		}
		d.addListener(listener)
	}

	return
}
