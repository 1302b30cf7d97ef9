// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxlint/services/lint/cache"
)

func newCacheCmd(gf *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the result cache",
	}

	// openStore resolves the cache directory from flags and config. A
	// missing directory is reported as (nil, "", nil).
	openStore := func(cmd *cobra.Command) (*cache.Store, string, error) {
		cfg, err := loadConfig(cmd.Context(), gf)
		if err != nil {
			return nil, "", err
		}
		dir := cfg.Cache.Dir
		if dir == "" {
			return nil, "", errors.New("no cache directory configured")
		}
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			return nil, dir, nil
		}
		store, err := cache.Open(dir, cache.WithTTL(cfg.Cache.TTL))
		if err != nil {
			return nil, dir, err
		}
		return store, dir, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print the number of cached results",
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, dir, err := openStore(cmd)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Cache path: %s\n", dir)
				if store == nil {
					fmt.Fprintln(out, "Cache directory does not exist; nothing has been cached yet.")
					return nil
				}
				defer store.Close()

				n, err := store.Len()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Entries:    %d\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached result",
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, dir, err := openStore(cmd)
				if err != nil {
					return err
				}
				if store == nil {
					return nil
				}
				defer store.Close()

				if err := store.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", dir)
				return nil
			},
		},
	)
	return cmd
}
