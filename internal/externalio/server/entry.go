// Local HTTP endpoint for discovering and querying distributor metrics
package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"strconv"
	"strings"
)

//go:embed static-files/metric-help.html
var helpTemplate string

// Builds the metric query server. Only GET is routed; other methods get 405.
func SetupListener(ctx context.Context, port int, queries Queries) (server *http.Server, err error) {
	listenAddr := global.HTTPListenAddr + ":" + strconv.Itoa(port)
	helpPage := []byte(strings.NewReplacer(
		"@@LISTEN_ADDR@@", global.HTTPListenAddr,
		"@@LISTEN_PORT@@", strconv.Itoa(port),
		"@@DATA_PATH@@", global.DataPath,
		"@@DISCOVER_PATH@@", global.DiscoveryPath,
		"@@AGGREGATION_PATH@@", global.AggregationPath,
		"@@CONNECTIONS_PATH@@", global.ConnectionsPath,
	).Replace(helpTemplate))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(serverResponder http.ResponseWriter, _ *http.Request) {
		serverResponder.Header().Set("Content-Type", "text/html; charset=utf-8")
		serverResponder.Write(helpPage)
	})
	mux.HandleFunc("GET "+global.DiscoveryPath, func(w http.ResponseWriter, r *http.Request) {
		handleDiscovery(ctx, queries.Discover, w, r)
	})
	mux.HandleFunc("GET "+global.DataPath, func(w http.ResponseWriter, r *http.Request) {
		handleData(ctx, queries.Search, w, r)
	})
	mux.HandleFunc("GET "+global.AggregationPath, func(w http.ResponseWriter, r *http.Request) {
		handleAggregation(ctx, queries.Aggregate, w, r)
	})
	if queries.Connections != nil {
		mux.HandleFunc("GET "+global.ConnectionsPath, func(w http.ResponseWriter, r *http.Request) {
			handleConnections(ctx, queries.Connections, w, r)
		})
	}

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      mux,
		ReadTimeout:  global.HTTPReadTimeout,
		WriteTimeout: global.HTTPWriteTimeout,
		IdleTimeout:  global.HTTPIdleTimeout,
		ErrorLog:     log.New(httpLogWriter{ctx: ctx}, "", 0),
	}
	return
}

// Serves until the server is shut down
func Start(ctx context.Context, server *http.Server) {
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Metric query server listening on http://%s/\n", server.Addr)

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Metric query server stopped: %v\n", err)
	}
}

// Writes content as a JSON 200 response, or a bare 500 if it cannot be encoded
func jResp(ctx context.Context, serverResponder http.ResponseWriter, content any) {
	var body bytes.Buffer
	err := json.NewEncoder(&body).Encode(content)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed to encode query response: %v\n", err)
		serverResponder.WriteHeader(http.StatusInternalServerError)
		return
	}
	serverResponder.Header().Set("Content-Type", "application/json")
	serverResponder.Write(body.Bytes())
}

// Routes net/http internal errors into the context logger
func (logWriter httpLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	message := strings.TrimSpace(string(p))
	if message == "" {
		return
	}
	logctx.LogEvent(logWriter.ctx, global.VerbosityStandard, global.ErrorLog, "%s\n", message)
	return
}
