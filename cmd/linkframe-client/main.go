// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command linkframe-client is the driver-side front end for BACKUP,
// RESTORE, and VERIFY against a linkframe-server peer on the same
// broadcast domain.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linkframe/linkframe"
	"github.com/linkframe/linkframe/internal/rawsock"
)

func main() {
	var iface string

	root := &cobra.Command{
		Use:   "linkframe-client",
		Short: "Drive BACKUP/RESTORE/VERIFY against a linkframe-server peer",
	}
	root.PersistentFlags().StringVar(&iface, "iface", "", "network interface to bind the raw socket to (required)")
	_ = root.MarkPersistentFlagRequired("iface")

	newSession := func() (*linkframe.Session, func(), error) {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
		conn, err := rawsock.Open(iface)
		if err != nil {
			return nil, nil, err
		}
		sess := linkframe.NewSession(conn, linkframe.WithLogger(logger))
		return sess, func() { conn.Close(); logger.Sync() }, nil //nolint:errcheck
	}

	backupCmd := &cobra.Command{
		Use:   "backup <path>",
		Short: "Push a file to the peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := newSession()
			if err != nil {
				return err
			}
			defer cleanup()
			return sess.Backup(args[0])
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <name> <dest-dir>",
		Short: "Pull a file from the peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := newSession()
			if err != nil {
				return err
			}
			defer cleanup()
			return sess.Restore(args[0], args[1])
		},
	}

	verifyCmd := &cobra.Command{
		Use:   "verify <path>",
		Short: "Confirm the peer holds a file matching a local checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := newSession()
			if err != nil {
				return err
			}
			defer cleanup()
			ok, err := sess.Verify(args[0])
			if err != nil {
				return err
			}
			if ok {
				fmt.Println("OK")
				return nil
			}
			fmt.Println("MISMATCH")
			os.Exit(1)
			return nil
		},
	}

	root.AddCommand(backupCmd, restoreCmd, verifyCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
