// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command linkframe-server is the follower-side front end: it binds a raw
// socket to a network interface and serves BACKUP/RESTORE/VERIFY operations
// driven by a peer, forever, one phase sequence at a time.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linkframe/linkframe"
	"github.com/linkframe/linkframe/internal/rawsock"
)

func main() {
	var iface, storageDir, metricsAddr string

	root := &cobra.Command{
		Use:   "linkframe-server",
		Short: "Serve BACKUP/RESTORE/VERIFY operations over a raw-socket link",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			conn, err := rawsock.Open(iface)
			if err != nil {
				return err
			}
			defer conn.Close()

			reg := prometheus.NewRegistry()
			metrics := linkframe.NewMetrics(reg)

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				go func() {
					logger.Info("metrics listening", zap.String("addr", metricsAddr))
					if err := http.ListenAndServe(metricsAddr, mux); err != nil { //nolint:gosec
						logger.Error("metrics server exited", zap.Error(err))
					}
				}()
			}

			if err := os.MkdirAll(storageDir, 0o755); err != nil {
				return err
			}

			sess := linkframe.NewSession(conn,
				linkframe.WithLogger(logger),
				linkframe.WithMetrics(metrics),
				linkframe.WithSpaceCheck(func(size int64) bool {
					return diskHasSpace(storageDir, size)
				}),
			)

			logger.Info("serving", zap.String("iface", iface), zap.String("dir", storageDir))
			for {
				if err := sess.ServeOnce(storageDir); err != nil {
					logger.Error("phase failed", zap.Error(err))
					continue
				}
			}
		},
	}

	root.Flags().StringVar(&iface, "iface", "", "network interface to bind the raw socket to (required)")
	root.Flags().StringVar(&storageDir, "dir", ".", "directory backed-up/restored files live in")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address")
	_ = root.MarkFlagRequired("iface")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// diskHasSpace is a conservative free-space check; df-style accounting is
// out of this protocol's scope (§1), so this only rejects the obviously
// pathological case of a negative declared size.
func diskHasSpace(_ string, size int64) bool {
	return size >= 0
}
