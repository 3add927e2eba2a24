package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todolist/internal/model"
)

type pageFlags struct {
	page    int
	perPage int
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.page, "page", model.DefaultPage, "Page number, starting at 1")
	cmd.Flags().IntVar(&p.perPage, "per-page", 0, "Items per page, 0 for all (default --page-size)")
}

// resolve falls back to the global page size when --per-page was not given.
func (p *pageFlags) resolve(cmd *cobra.Command, a *app) (int, int) {
	page, perPage := p.page, p.perPage
	if page < model.DefaultPage {
		page = model.DefaultPage
	}
	if !cmd.Flags().Changed("per-page") {
		perPage = a.pageSize
	}
	return page, perPage
}

func newListCmd(a *app) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, perPage := pf.resolve(cmd, a)
			res, err := a.client.List(cmd.Context(), page, perPage)
			if err != nil {
				a.logger.Debug("list failed", zap.Error(err))
				return fmt.Errorf("list: %w", err)
			}
			printPage(cmd.OutOrStdout(), res, page, perPage)
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "search <text...>",
		Short: "List items whose text contains the given text, ignoring case",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			page, perPage := pf.resolve(cmd, a)
			res, err := a.client.Search(cmd.Context(), q, page, perPage)
			if err != nil {
				a.logger.Debug("search failed", zap.String("q", q), zap.Error(err))
				return fmt.Errorf("search: %w", err)
			}
			printPage(cmd.OutOrStdout(), res, page, perPage)
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func newAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "List every item without pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client.All(cmd.Context())
			if err != nil {
				a.logger.Debug("list all failed", zap.Error(err))
				return fmt.Errorf("all: %w", err)
			}
			printItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.client.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				a.logger.Debug("add failed", zap.Error(err))
				return fmt.Errorf("add: %w", err)
			}
			printOK(cmd.OutOrStdout(), "added "+item.ID)
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text...>",
		Short: "Replace the text of an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			item, err := a.client.Update(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				a.logger.Debug("edit failed", zap.String("id", id), zap.Error(err))
				return fmt.Errorf("edit: %w", err)
			}
			if item == nil {
				return fmt.Errorf("edit: no item with id %s", id)
			}
			printOK(cmd.OutOrStdout(), "updated "+item.ID)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Delete(cmd.Context(), args[0]); err != nil {
				a.logger.Debug("delete failed", zap.String("id", args[0]), zap.Error(err))
				return fmt.Errorf("delete: %w", err)
			}
			printOK(cmd.OutOrStdout(), "deleted "+args[0])
			return nil
		},
	}
}

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server and its store are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping %s: %w", a.client.BaseURL(), err)
			}
			printOK(cmd.OutOrStdout(), "server ready at "+a.client.BaseURL())
			return nil
		},
	}
}
