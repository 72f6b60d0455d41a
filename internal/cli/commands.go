// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// commands.go — one subcommand per client operation.

package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AndrewDonelson/kvpool"
	"github.com/AndrewDonelson/kvpool/internal/codec"
	"github.com/spf13/cobra"
)

func (a *app) dataCommands() []*cobra.Command {
	putCmd := &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Stores a text value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if err := a.client.Put(cmd.Context(), args[0], args[1], kvpool.TTL(ttl)); err != nil {
				return err
			}
			return done(cmd.OutOrStdout(), "put")
		},
	}
	getCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Reads a text value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
	putJSONCmd := &cobra.Command{
		Use:   "put-json [key] [json]",
		Short: "Stores a JSON document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc any
			if err := (codec.JSON{}).Unmarshal([]byte(args[1]), &doc); err != nil {
				return fmt.Errorf("value is not valid JSON: %w", err)
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if err := a.client.PutJSON(cmd.Context(), args[0], doc, kvpool.TTL(ttl)); err != nil {
				return err
			}
			return done(cmd.OutOrStdout(), "put-json")
		},
	}
	getJSONCmd := &cobra.Command{
		Use:   "get-json [key]",
		Short: "Reads a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc any
			if err := a.client.GetJSON(cmd.Context(), args[0], &doc); err != nil {
				return err
			}
			b, err := (codec.JSON{}).Marshal(doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	putMapCmd := &cobra.Command{
		Use:   "put-map [key] [field=value]...",
		Short: "Sets fields of a hash",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := make(map[string]string, len(args)-1)
			for _, pair := range args[1:] {
				f, v, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("expected field=value, got %q", pair)
				}
				m[f] = v
			}
			if err := a.client.PutMap(cmd.Context(), args[0], m); err != nil {
				return err
			}
			return done(cmd.OutOrStdout(), "put-map")
		},
	}
	getMapCmd := &cobra.Command{
		Use:   "get-map [key]",
		Short: "Reads every field of a hash, one field=value per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.client.GetMap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fields := make([]string, 0, len(m))
			for f := range m {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, f := range fields {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", f, m[f])
			}
			return nil
		},
	}
	getFieldCmd := &cobra.Command{
		Use:   "get-field [key] [field]",
		Short: "Reads one field of a hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.client.GetField(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
	delFieldCmd := &cobra.Command{
		Use:   "del-field [key] [field]...",
		Short: "Removes fields from a hash",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DelField(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			return done(cmd.OutOrStdout(), "del-field")
		},
	}
	putFileCmd := &cobra.Command{
		Use:   "put-file [key] [path]",
		Short: "Stores the content of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if err := a.client.PutFilePath(cmd.Context(), args[0], args[1], kvpool.TTL(ttl)); err != nil {
				return err
			}
			return done(cmd.OutOrStdout(), "put-file")
		},
	}
	getFileCmd := &cobra.Command{
		Use:   "get-file [key] [path]",
		Short: "Writes a stored blob to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.client.GetFile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	delCmd := &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return done(cmd.OutOrStdout(), "delete")
		},
	}
	expireCmd := &cobra.Command{
		Use:   "expire [key] [ttl]",
		Short: "Sets the lifetime of an existing key (e.g. 30s, 5m or plain seconds)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, err := parseTTL(args[1])
			if err != nil {
				return err
			}
			ok, err := a.client.Expire(cmd.Context(), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, expire set=%v\n", args[0], ok)
			return nil
		},
	}
	flushCmd := &cobra.Command{
		Use:   "flushdb [index]",
		Short: "Removes every key in a database (default: --db)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := a.client.DefaultDB()
			if len(args) == 1 {
				i, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("index must be a number: %w", err)
				}
				index = i
			}
			if err := a.client.FlushDB(cmd.Context(), index); err != nil {
				return err
			}
			return done(cmd.OutOrStdout(), "flushdb")
		},
	}

	for _, c := range []*cobra.Command{putCmd, putJSONCmd, putFileCmd} {
		c.Flags().Duration("ttl", 0, WrapString("Lifetime of the stored value (0 never expires)"))
	}

	return []*cobra.Command{
		putCmd, getCmd, putJSONCmd, getJSONCmd,
		putMapCmd, getMapCmd, getFieldCmd, delFieldCmd,
		putFileCmd, getFileCmd, delCmd, expireCmd, flushCmd,
	}
}

func done(w io.Writer, op string) error {
	_, err := fmt.Fprintf(w, "%s successfully\n", op)
	return err
}

// parseTTL accepts a Go duration or a plain number of seconds.
func parseTTL(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("ttl must be a duration or seconds: %w", err)
	}
	return d, nil
}
